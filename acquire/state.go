package acquire

import (
	"fmt"

	"github.com/kardianos/catinstall/cstate"
)

// State is a step of the acquisition flow.
type State int

const (
	Start State = iota
	CollectingUsername
	CollectingPassword
	SelectingCertFile
	CollectingPassphrase
	ExtractingIdentity
	Done
	Failed
)

var stateNames = [...]string{
	Start:                "start",
	CollectingUsername:   "collecting-username",
	CollectingPassword:   "collecting-password",
	SelectingCertFile:    "selecting-cert-file",
	CollectingPassphrase: "collecting-passphrase",
	ExtractingIdentity:   "extracting-identity",
	Done:                 "done",
	Failed:               "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var transitions = []cstate.Transition[State]{
	{From: Start, To: Done, Name: "pre-supplied password"},
	{From: Start, To: CollectingUsername, Name: "password method"},
	{From: CollectingUsername, To: CollectingUsername, Name: "username rejected"},
	{From: CollectingUsername, To: CollectingPassword, Name: "username accepted"},
	{From: CollectingPassword, To: CollectingPassword, Name: "passwords differ"},
	{From: CollectingPassword, To: Done, Name: "password confirmed"},

	{From: Start, To: SelectingCertFile, Name: "certificate method"},
	{From: SelectingCertFile, To: CollectingPassphrase, Name: "bundle staged"},
	{From: CollectingPassphrase, To: ExtractingIdentity, Name: "passphrase entered"},
	{From: ExtractingIdentity, To: CollectingPassphrase, Name: "wrong passphrase"},
	{From: ExtractingIdentity, To: CollectingUsername, Name: "identity unavailable"},
	{From: ExtractingIdentity, To: Done, Name: "identity extracted"},
	{From: CollectingUsername, To: Done, Name: "username entered"},
}

func newMachine(onChange func(from, to State, name string)) *cstate.Machine[State] {
	return cstate.New(Start, transitions,
		cstate.WithFailure(Failed),
		cstate.WithTerminal(Done),
		cstate.WithOnChange(onChange),
	)
}
