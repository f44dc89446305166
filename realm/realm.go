// Package realm validates usernames against the realm policy of an institution.
package realm

import (
	"fmt"
	"strings"
)

// Mode selects how the realm part of a username is checked.
type Mode int

const (
	// ModeNone accepts any well formed realm and shows no hint.
	ModeNone Mode = iota

	// ModeSuffixFree pre-fills "@realm" as a hint but accepts any well formed realm.
	ModeSuffixFree

	// ModeSuffixExact requires the text after the first '@' to end with the realm.
	// Subdomains such as "user@dept.example.net" for realm "example.net" pass.
	ModeSuffixExact

	// ModeSuffixHint pre-fills "@realm" and requires the username to end with "@realm".
	ModeSuffixHint
)

var modeNames = [...]string{
	ModeNone:        "none",
	ModeSuffixFree:  "suffix-free",
	ModeSuffixExact: "suffix-exact",
	ModeSuffixHint:  "suffix-with-hint",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// ParseMode parses a mode name as written in institution bundles.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeNone, nil
	}
	for m, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(m), nil
		}
	}
	return ModeNone, fmt.Errorf("realm: unknown mode %q", s)
}

// Policy is the realm policy of an institution.
type Policy struct {
	Realm string
	Mode  Mode
}

// RequiresRealm reports whether a username without a realm is rejected.
func (p Policy) RequiresRealm() bool {
	return p.Mode == ModeSuffixExact || p.Mode == ModeSuffixHint
}

// ShowsHint reports whether "@realm" is offered as the initial username text.
func (p Policy) ShowsHint() bool {
	return p.Realm != "" && (p.Mode == ModeSuffixFree || p.Mode == ModeSuffixHint)
}

// Hint returns the initial username text, or "" when the policy shows no hint.
func (p Policy) Hint() string {
	if !p.ShowsHint() {
		return ""
	}
	return "@" + p.Realm
}

// Reason explains why a username was rejected.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMalformed
	ReasonMissingRealm
	ReasonEmptyLocal
	ReasonWrongRealm
	ReasonWrongRealmSuffix
	ReasonSecondSeparator
	ReasonDotAfterSeparator
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "ok"
	case ReasonMalformed:
		return "malformed"
	case ReasonMissingRealm:
		return "missing realm"
	case ReasonEmptyLocal:
		return "empty local part"
	case ReasonWrongRealm:
		return "wrong realm"
	case ReasonWrongRealmSuffix:
		return "wrong realm suffix"
	case ReasonSecondSeparator:
		return "second @"
	case ReasonDotAfterSeparator:
		return "dot after @"
	default:
		return "unknown"
	}
}

// Result is the outcome of Validate.
type Result struct {
	OK     bool
	Reason Reason
}

func reject(r Reason) Result {
	return Result{Reason: r}
}

var accept = Result{OK: true}

// Validate checks username against the policy. The first matching rule decides.
func Validate(username string, p Policy) Result {
	at := strings.IndexByte(username, '@')
	switch {
	case strings.HasSuffix(username, "@"):
		return reject(ReasonMalformed)
	case at < 0:
		if p.RequiresRealm() {
			return reject(ReasonMissingRealm)
		}
		return accept
	case at == 0:
		return reject(ReasonEmptyLocal)
	}

	rest := username[at+1:]
	switch p.Mode {
	case ModeSuffixHint:
		// Anchored at the first '@', so "a@x@realm" still ends with "@realm".
		if strings.HasSuffix(username[at:], "@"+p.Realm) {
			return accept
		}
		return reject(ReasonWrongRealm)
	case ModeSuffixExact:
		if strings.HasSuffix(rest, p.Realm) {
			return accept
		}
		return reject(ReasonWrongRealmSuffix)
	}

	if strings.IndexByte(rest, '@') >= 0 {
		return reject(ReasonSecondSeparator)
	}
	if rest[0] == '.' {
		return reject(ReasonDotAfterSeparator)
	}
	return accept
}
