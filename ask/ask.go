// Package ask talks to the person running the installer.
//
// The installer core only sees the Port interface. Detect picks one backend
// at startup: a silent backend for unattended runs, a zenity or kdialog
// dialog backend when a display is available, or the terminal.
package ask

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kardianos/catinstall/cdef"
)

var (
	// ErrCancelled is returned when the user quits a prompt.
	ErrCancelled = errors.New("ask: cancelled by user")

	// ErrNoInteraction is returned by the silent backend for prompts that need an answer.
	ErrNoInteraction = errors.New("ask: no interaction in silent mode")
)

// Answer is the preselected answer of a yes/no question.
type Answer int

const (
	AnswerNone Answer = iota
	AnswerYes
	AnswerNo
)

// Port is the set of interactions the installer needs.
type Port interface {
	// AskYesNo shows question and returns true for yes.
	AskYesNo(ctx context.Context, question, label string, def Answer) (bool, error)

	// PromptText asks for a non-empty value. Hidden input is used when show is false.
	PromptText(ctx context.Context, label string, show bool, initial string) (string, error)

	// SelectFile asks for the path of a PKCS#12 bundle.
	SelectFile(ctx context.Context, title string) (string, error)

	Inform(ctx context.Context, text string)
	Warn(ctx context.Context, text string)
}

// Options are shared by every backend.
type Options struct {
	Title    string
	Messages cdef.Messages
	Log      *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Log == nil {
		return slog.Default()
	}
	return o.Log
}

// Env is the part of the process environment that decides the backend.
type Env struct {
	Silent   bool
	Display  string
	LookPath func(file string) (string, error)
}

// Detect picks the backend once.
func Detect(env Env, opts Options) (Port, error) {
	log := opts.logger()
	if env.Silent {
		log.Debug("interaction backend", "backend", "silent")
		return NewSilent(opts), nil
	}
	if env.Display != "" && env.LookPath != nil {
		for _, f := range []Flavor{Zenity, KDialog} {
			path, err := env.LookPath(f.String())
			if err != nil {
				continue
			}
			log.Debug("interaction backend", "backend", f.String(), "path", path)
			return NewDialog(f, path, opts), nil
		}
	}
	log.Debug("interaction backend", "backend", "terminal")
	return NewTerminal(opts)
}
