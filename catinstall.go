// Package catinstall runs one provisioning pass of the 802.1X installer.
//
// A pass asks the introduction questions, opens the private state directory,
// reaches NetworkManager, collects the credential, stages the trust anchor
// and then either reconciles the wireless profiles or, when NetworkManager is
// unreachable and the user agrees, writes a wpa_supplicant file.
package catinstall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kardianos/catinstall/acquire"
	"github.com/kardianos/catinstall/ask"
	"github.com/kardianos/catinstall/cdef"
	"github.com/kardianos/catinstall/cstore"
	"github.com/kardianos/catinstall/nmconf"
	"github.com/kardianos/catinstall/p12id"
	"github.com/kardianos/catinstall/wpaconf"
)

// Exit codes of the installer command.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitTrustAnchor     = 2
	ExitServiceProtocol = 3
)

// Reconciler writes the profiles into the network configuration service.
type Reconciler interface {
	Reconcile(ctx context.Context, p nmconf.ProfileParams) (nmconf.ReconcileResult, error)
	Close() error
}

// Installer holds everything one pass needs.
type Installer struct {
	Inst      *cdef.Institution
	Port      ask.Port
	Extractor p12id.Extractor
	Silent    bool

	// StateDir is the private staging directory, usually cstore.DefaultDir(home).
	StateDir string

	// User binds the created profiles to one local user.
	User string

	// Connect reaches the settings service. Defaults to the system bus.
	Connect func(ctx context.Context) (Reconciler, error)

	Log *slog.Logger
}

// Result describes a finished pass.
type Result struct {
	Credential cdef.Credential

	// Fallback is set when the supplicant file was written instead of profiles.
	Fallback       bool
	SupplicantPath string

	Reconcile nmconf.ReconcileResult
}

// Run performs the pass. The credential fields of pre are used where present.
func (in *Installer) Run(ctx context.Context, pre cdef.Credential) (Result, error) {
	log := in.Log
	if log == nil {
		log = slog.Default()
	}
	inst := in.Inst
	msgs := inst.Messages
	var res Result

	if inst.InitInfo != "" {
		in.Port.Inform(ctx, inst.Expand(inst.InitInfo))
	}
	for _, q := range []string{inst.InitConfirmation, inst.TermsOfUse} {
		if q == "" {
			continue
		}
		if err := in.confirm(ctx, inst.Expand(q), msgs.Continue); err != nil {
			return res, err
		}
	}

	store, err := cstore.Open(in.StateDir)
	if err != nil {
		return res, fmt.Errorf("open state directory: %w", err)
	}
	if store.Existed() {
		log.Debug("state directory exists", "dir", store.Dir())
		if err := in.confirm(ctx, fmt.Sprintf(msgs.StateDirExists, store.Dir()), msgs.Continue); err != nil {
			return res, err
		}
	}

	rec, err := in.connect(ctx, log)
	switch {
	case err == nil:
		defer rec.Close()
	case errors.Is(err, cdef.ErrServiceUnreachable):
		log.Debug("NetworkManager unreachable", "error", err)
		if err := in.confirm(ctx, msgs.SaveSupplicantConf, msgs.SaveSupplicantOK); err != nil {
			return res, err
		}
		res.Fallback = true
	default:
		in.Port.Warn(ctx, msgs.ServiceNotSupported)
		return res, err
	}

	if inst.EAPOuter.UsesCertificate() && pre.Passphrase == "" {
		pre.Passphrase, pre.Password = pre.Password, ""
	}
	flow := &acquire.Flow{
		Port:      in.Port,
		Inst:      inst,
		Extractor: in.Extractor,
		Store:     store,
		Silent:    in.Silent,
		Log:       log,
	}
	cred, err := flow.Run(ctx, pre)
	if err != nil {
		return res, err
	}
	res.Credential = cred
	log.Debug("credential acquired", "credential", cred)

	if err := store.SaveCA(inst.CA); err != nil {
		return res, err
	}

	secret := cred.Password
	bundlePath := ""
	if inst.EAPOuter.UsesCertificate() {
		secret = cred.Passphrase
		bundlePath = store.BundlePath()
	}

	if res.Fallback {
		path, err := wpaconf.Write(store, wpaconf.Params{
			SSIDs:             inst.SSIDs,
			Method:            inst.EAPOuter,
			Inner:             inst.EAPInner,
			Identity:          cred.Username,
			Password:          secret,
			AnonymousIdentity: inst.AnonymousIdentity,
			CAPath:            store.CAPath(),
			BundlePath:        bundlePath,
			Servers:           inst.Servers,
		})
		if err != nil {
			return res, err
		}
		res.SupplicantPath = path
		log.Info("wpa_supplicant configuration written", "path", path)
	} else {
		if !store.HasCA() {
			in.Port.Warn(ctx, msgs.TrustAnchorMissing)
			return res, fmt.Errorf("%w: %s", cdef.ErrTrustAnchorMissing, store.CAPath())
		}
		res.Reconcile, err = rec.Reconcile(ctx, nmconf.ProfileParams{
			Method:            inst.EAPOuter,
			Inner:             inst.EAPInner,
			Identity:          cred.Username,
			Password:          secret,
			AnonymousIdentity: inst.AnonymousIdentity,
			CAPath:            store.CAPath(),
			BundlePath:        bundlePath,
			Servers:           inst.Servers,
			ServerMatch:       inst.ServerMatch,
			User:              in.User,
			SSIDs:             inst.SSIDs,
			DeleteSSIDs:       inst.DeleteSSIDs,
		})
		if err != nil {
			in.Port.Warn(ctx, msgs.ServiceError)
			return res, err
		}
		log.Info("profiles reconciled", "deleted", res.Reconcile.Deleted, "created", len(res.Reconcile.Created))
	}

	in.Port.Inform(ctx, msgs.InstallationFinished)
	return res, nil
}

func (in *Installer) connect(ctx context.Context, log *slog.Logger) (Reconciler, error) {
	if in.Connect != nil {
		return in.Connect(ctx)
	}
	c, err := nmconf.Connect(ctx, nmconf.Options{Log: log})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// confirm asks a question defaulting to yes; "no" cancels the pass.
func (in *Installer) confirm(ctx context.Context, question, label string) error {
	ok, err := in.Port.AskYesNo(ctx, question, label, ask.AnswerYes)
	if err != nil {
		if errors.Is(err, ask.ErrCancelled) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %v", cdef.ErrUserCancelled, err)
		}
		return err
	}
	if !ok {
		return cdef.ErrUserCancelled
	}
	return nil
}

// ExitCode maps the error of Run to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, cdef.ErrTrustAnchorMissing):
		return ExitTrustAnchor
	case errors.Is(err, cdef.ErrServiceProtocol):
		return ExitServiceProtocol
	default:
		return ExitFailure
	}
}
