// Command catinstall configures the device for the institution's 802.1X
// wireless network.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kardianos/catinstall"
	"github.com/kardianos/catinstall/ask"
	"github.com/kardianos/catinstall/cdef"
	"github.com/kardianos/catinstall/cstore"
	"github.com/kardianos/catinstall/inst"
	"github.com/kardianos/catinstall/p12id"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand(defaultOptions()).ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "catinstall:", userMessage(err))
	}
	os.Exit(catinstall.ExitCode(err))
}

type options struct {
	debug     bool
	username  string
	password  string
	silent    bool
	pfxFile   string
	profile   string
	openssl   bool
	stateDir  string
	userHome  func() (string, error)
	lookPath  func(string) (string, error)
	getenv    func(string) string
	newPort   func(ask.Env, ask.Options) (ask.Port, error)
	installer func(*catinstall.Installer) *catinstall.Installer
}

func defaultOptions() *options {
	return &options{
		userHome: os.UserHomeDir,
		lookPath: exec.LookPath,
		getenv:   os.Getenv,
		newPort:  ask.Detect,
	}
}

func newRootCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "catinstall",
		Short:         "Configure the eduroam wireless profile for this user",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), opts, cmd.ErrOrStderr())
		},
	}
	f := cmd.Flags()
	f.BoolVarP(&opts.debug, "debug", "d", false, "Log every decision at debug level")
	f.StringVarP(&opts.username, "username", "u", "", "Username for the network")
	f.StringVarP(&opts.password, "password", "p", "", "Password, or the certificate passphrase for TLS profiles")
	f.BoolVarP(&opts.silent, "silent", "s", false, "Do not ask anything; fail when a value is missing")
	f.StringVar(&opts.pfxFile, "pfxfile", "", "Path to the personal certificate bundle (p12 or pfx)")
	f.BoolVar(&opts.openssl, "openssl", false, "Open certificate bundles with the openssl tool")
	f.StringVar(&opts.stateDir, "state-dir", "", "Private staging directory (default ~/"+cstore.DirName+")")

	cmd.PersistentFlags().StringVar(&opts.profile, "profile", "", "Institution bundle file (.yaml or .cbor) instead of the built-in one")

	cmd.AddCommand(newProfileCommand(opts))
	return cmd
}

func loadInstitution(path string) (*cdef.Institution, error) {
	if path == "" {
		return inst.Default()
	}
	return inst.Load(path)
}

func runInstall(ctx context.Context, opts *options, stderr io.Writer) error {
	log := newLogger(stderr, opts.debug)
	slog.SetDefault(log)

	in, err := loadInstitution(opts.profile)
	if err != nil {
		return err
	}
	stateDir := opts.stateDir
	if stateDir == "" {
		home, err := opts.userHome()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}
		stateDir = cstore.DefaultDir(home)
	}

	port, err := opts.newPort(ask.Env{
		Silent:   opts.silent,
		Display:  opts.getenv("DISPLAY"),
		LookPath: opts.lookPath,
	}, ask.Options{Title: in.Title, Messages: in.Messages, Log: log})
	if err != nil {
		return fmt.Errorf("start interaction: %w", err)
	}
	if c, ok := port.(io.Closer); ok {
		defer c.Close()
	}

	var ext p12id.Extractor
	if in.EAPOuter.UsesCertificate() {
		ext, err = p12id.New(p12id.Options{ForceTool: opts.openssl, LookPath: opts.lookPath, Log: log})
		if err != nil {
			return err
		}
	}

	ins := &catinstall.Installer{
		Inst:      in,
		Port:      port,
		Extractor: ext,
		Silent:    opts.silent,
		StateDir:  stateDir,
		User:      opts.getenv("USER"),
		Log:       log,
	}
	if opts.installer != nil {
		ins = opts.installer(ins)
	}
	_, err = ins.Run(ctx, cdef.Credential{
		Username: opts.username,
		Password: opts.password,
		CertFile: opts.pfxFile,
	})
	return err
}

// userMessage is the one line printed for a failed run.
func userMessage(err error) string {
	switch {
	case errors.Is(err, cdef.ErrUserCancelled):
		return "installation cancelled"
	case errors.Is(err, cdef.ErrMissingInput):
		return fmt.Sprintf("missing input for silent mode: %v", err)
	default:
		return err.Error()
	}
}
