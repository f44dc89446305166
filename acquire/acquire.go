// Package acquire collects the user credential for the institution's EAP method.
//
// Password methods ask for a username that passes the realm policy and a
// confirmed password. The certificate method stages the client bundle, asks
// for its passphrase until it opens and takes the username from the
// certificate. In silent mode nothing is asked and missing values fail the
// flow at once.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kardianos/catinstall/ask"
	"github.com/kardianos/catinstall/cdef"
	"github.com/kardianos/catinstall/cstate"
	"github.com/kardianos/catinstall/p12id"
	"github.com/kardianos/catinstall/realm"
)

// BundleStore stages the client bundle.
type BundleStore interface {
	StageBundle(src string) ([]byte, error)
	SaveBundle(data []byte) error
}

// Flow runs one acquisition.
type Flow struct {
	Port      ask.Port
	Inst      *cdef.Institution
	Extractor p12id.Extractor
	Store     BundleStore
	Silent    bool
	Log       *slog.Logger

	m *cstate.Machine[State]
}

// Run returns the credential built from the pre-supplied values and the
// user's answers. Cancelling a prompt returns cdef.ErrUserCancelled.
func (f *Flow) Run(ctx context.Context, pre cdef.Credential) (cdef.Credential, error) {
	if f.Log == nil {
		f.Log = slog.Default()
	}
	f.m = newMachine(func(from, to State, name string) {
		f.Log.Debug("acquire", "from", from, "to", to, "via", name)
	})

	var (
		cred cdef.Credential
		err  error
	)
	if f.Inst.EAPOuter.UsesCertificate() {
		cred, err = f.certificate(ctx, pre)
	} else {
		cred, err = f.password(ctx, pre)
	}
	if err == nil {
		err = cred.Complete(f.Inst.EAPOuter)
		if err != nil {
			err = fmt.Errorf("%w: %v", cdef.ErrMissingInput, err)
		}
	}
	if err != nil {
		f.m.Fail()
		if errors.Is(err, ask.ErrCancelled) || errors.Is(err, context.Canceled) {
			return cdef.Credential{}, fmt.Errorf("%w: %v", cdef.ErrUserCancelled, err)
		}
		return cdef.Credential{}, err
	}
	return cred, nil
}

// State returns the state reached by the last Run.
func (f *Flow) State() State {
	if f.m == nil {
		return Start
	}
	return f.m.Current()
}

func (f *Flow) msgs() cdef.Messages {
	return f.Inst.Messages
}

func (f *Flow) to(s State) error {
	return f.m.To(s)
}

func (f *Flow) password(ctx context.Context, pre cdef.Credential) (cdef.Credential, error) {
	policy := f.Inst.Policy()
	if f.Silent {
		switch {
		case pre.Username == "":
			return cdef.Credential{}, fmt.Errorf("%w: username", cdef.ErrMissingInput)
		case pre.Password == "":
			return cdef.Credential{}, fmt.Errorf("%w: password", cdef.ErrMissingInput)
		}
		if res := realm.Validate(pre.Username, policy); !res.OK {
			f.Log.Warn("username does not match the realm policy", "reason", res.Reason)
		}
		return pre, f.to(Done)
	}

	initial := pre.Username
	if initial == "" && policy.ShowsHint() {
		initial = policy.Hint()
	}
	if err := f.to(CollectingUsername); err != nil {
		return cdef.Credential{}, err
	}
	cred := pre
	for {
		username, err := f.Port.PromptText(ctx, f.msgs().UsernamePrompt, true, initial)
		if err != nil {
			return cdef.Credential{}, err
		}
		res := realm.Validate(username, policy)
		f.Log.Debug("username check", "ok", res.OK, "reason", res.Reason)
		if res.OK {
			cred.Username = username
			break
		}
		f.Port.Warn(ctx, f.reasonMessage(res.Reason))
		if err := f.to(CollectingUsername); err != nil {
			return cdef.Credential{}, err
		}
	}

	if err := f.to(CollectingPassword); err != nil {
		return cdef.Credential{}, err
	}
	for {
		pw, err := f.Port.PromptText(ctx, f.msgs().EnterPassword, false, "")
		if err != nil {
			return cdef.Credential{}, err
		}
		repeat, err := f.Port.PromptText(ctx, f.msgs().RepeatPassword, false, "")
		if err != nil {
			return cdef.Credential{}, err
		}
		if pw == repeat {
			cred.Password = pw
			break
		}
		f.Port.Warn(ctx, f.msgs().PasswordsDiffer)
		if err := f.to(CollectingPassword); err != nil {
			return cdef.Credential{}, err
		}
	}
	return cred, f.to(Done)
}

func (f *Flow) reasonMessage(r realm.Reason) string {
	m := f.msgs()
	switch r {
	case realm.ReasonWrongRealm:
		return fmt.Sprintf(m.WrongRealm, f.Inst.Realm)
	case realm.ReasonWrongRealmSuffix:
		return fmt.Sprintf(m.WrongRealmSuffix, f.Inst.Realm)
	default:
		return m.WrongUsernameFormat
	}
}

func (f *Flow) certificate(ctx context.Context, pre cdef.Credential) (cdef.Credential, error) {
	cred := pre
	if err := f.to(SelectingCertFile); err != nil {
		return cdef.Credential{}, err
	}
	bundle, err := f.stageBundle(ctx, &cred)
	if err != nil {
		return cdef.Credential{}, err
	}
	cred.Bundle = bundle
	if err := f.to(CollectingPassphrase); err != nil {
		return cdef.Credential{}, err
	}

	alt := f.Inst.UseOtherTLSID
	if f.Silent {
		if err := f.to(ExtractingIdentity); err != nil {
			return cdef.Credential{}, err
		}
		id, err := f.Extractor.Extract(ctx, bundle, cred.Passphrase, alt)
		if err != nil && !errors.Is(err, p12id.ErrNoUsableIdentity) {
			return cdef.Credential{}, fmt.Errorf("open client bundle: %w", err)
		}
		if pre.Username == "" {
			cred.Username = id.Username
		}
		if cred.Username == "" {
			return cdef.Credential{}, fmt.Errorf("%w: username", cdef.ErrMissingInput)
		}
		return cred, f.to(Done)
	}

	prompt := cred.Passphrase == ""
	var id p12id.Identity
	for {
		if prompt {
			cred.Passphrase, err = f.Port.PromptText(ctx, f.msgs().EnterImportPassword, false, "")
			if err != nil {
				return cdef.Credential{}, err
			}
		}
		if err := f.to(ExtractingIdentity); err != nil {
			return cdef.Credential{}, err
		}
		id, err = f.Extractor.Extract(ctx, bundle, cred.Passphrase, alt)
		if errors.Is(err, p12id.ErrWrongPassphrase) {
			f.Log.Debug("bundle did not open", "error", err)
			f.Port.Warn(ctx, f.msgs().IncorrectPassword)
			if err := f.to(CollectingPassphrase); err != nil {
				return cdef.Credential{}, err
			}
			prompt = true
			continue
		}
		break
	}
	switch {
	case errors.Is(err, p12id.ErrNoUsableIdentity):
		f.Port.Warn(ctx, f.msgs().IdentityUnavailable)
	case err != nil:
		return cdef.Credential{}, fmt.Errorf("open client bundle: %w", err)
	default:
		f.Log.Debug("identity from certificate", "source", id.Source)
	}

	if id.Username != "" {
		cred.Username = id.Username
		return cred, f.to(Done)
	}
	if cred.Username != "" {
		return cred, f.to(Done)
	}
	if err := f.to(CollectingUsername); err != nil {
		return cdef.Credential{}, err
	}
	cred.Username, err = f.Port.PromptText(ctx, f.msgs().UsernamePrompt, true, "")
	if err != nil {
		return cdef.Credential{}, err
	}
	return cred, f.to(Done)
}

// stageBundle writes the embedded bundle, or copies the chosen file into the store.
func (f *Flow) stageBundle(ctx context.Context, cred *cdef.Credential) ([]byte, error) {
	if f.Inst.EmbeddedBundle() {
		if err := f.Store.SaveBundle(f.Inst.SilverBullet); err != nil {
			return nil, err
		}
		return f.Inst.SilverBullet, nil
	}
	if cred.CertFile == "" {
		if f.Silent {
			return nil, fmt.Errorf("%w: certificate file", cdef.ErrMissingInput)
		}
		path, err := f.Port.SelectFile(ctx, f.msgs().P12Title)
		if err != nil {
			return nil, err
		}
		cred.CertFile = path
	}
	data, err := f.Store.StageBundle(cred.CertFile)
	if err != nil {
		f.Port.Warn(ctx, f.msgs().UserCertMissing)
		return nil, err
	}
	return data, nil
}
