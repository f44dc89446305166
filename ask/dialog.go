package ask

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Flavor is the dialog program.
type Flavor int

const (
	Zenity Flavor = iota
	KDialog
)

func (f Flavor) String() string {
	switch f {
	case Zenity:
		return "zenity"
	case KDialog:
		return "kdialog"
	default:
		return fmt.Sprintf("Flavor(%d)", int(f))
	}
}

const bundlePatterns = "*.p12 *.P12 *.pfx *.PFX"

// RunFunc runs a dialog and returns its standard output and exit code.
// The error is only set when the program could not be run.
type RunFunc func(ctx context.Context, name string, args ...string) (out []byte, code int, err error)

// Dialog shows desktop dialogs through zenity or kdialog.
type Dialog struct {
	Flavor Flavor
	Path   string
	Run    RunFunc

	opts Options
}

var _ Port = (*Dialog)(nil)

func NewDialog(f Flavor, path string, opts Options) *Dialog {
	return &Dialog{Flavor: f, Path: path, Run: execRun, opts: opts}
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return nil, -1, err
	}
	return stdout.Bytes(), 0, nil
}

func (d *Dialog) run(ctx context.Context, args []string) ([]byte, int, error) {
	path := d.Path
	if path == "" {
		path = d.Flavor.String()
	}
	out, code, err := d.Run(ctx, path, args...)
	if err != nil {
		return nil, code, fmt.Errorf("run %s: %w", d.Flavor, err)
	}
	return out, code, nil
}

// AskYesNo maps exit code 0 to yes and 1 to no. The dialogs have no default answer.
func (d *Dialog) AskYesNo(ctx context.Context, question, label string, def Answer) (bool, error) {
	_, code, err := d.run(ctx, d.questionArgs(question, label))
	if err != nil {
		return false, err
	}
	switch code {
	case 0:
		return true, nil
	case 1:
		return false, nil
	default:
		return false, fmt.Errorf("%s exited with code %d", d.Flavor, code)
	}
}

// PromptText repeats the dialog until it returns text. Closing the dialog
// asks whether to quit.
func (d *Dialog) PromptText(ctx context.Context, label string, show bool, initial string) (string, error) {
	return d.readValue(ctx, d.entryArgs(label, show, initial))
}

func (d *Dialog) SelectFile(ctx context.Context, title string) (string, error) {
	return d.readValue(ctx, d.fileArgs(title))
}

func (d *Dialog) readValue(ctx context.Context, args []string) (string, error) {
	for {
		out, code, err := d.run(ctx, args)
		if err != nil {
			return "", err
		}
		if code == 1 {
			if err := d.confirmQuit(ctx); err != nil {
				return "", err
			}
			continue
		}
		if v := strings.TrimSpace(string(out)); v != "" {
			return v, nil
		}
	}
}

func (d *Dialog) confirmQuit(ctx context.Context) error {
	quit, err := d.AskYesNo(ctx, d.opts.Messages.Quit, "", AnswerNone)
	if err != nil {
		return err
	}
	if quit {
		return ErrCancelled
	}
	return nil
}

func (d *Dialog) Inform(ctx context.Context, text string) {
	if _, _, err := d.run(ctx, d.infoArgs(text)); err != nil {
		d.opts.logger().Warn("info dialog failed", "error", err)
	}
}

func (d *Dialog) Warn(ctx context.Context, text string) {
	if _, _, err := d.run(ctx, d.warnArgs(text)); err != nil {
		d.opts.logger().Warn("warning dialog failed", "error", err)
	}
}

func (d *Dialog) questionArgs(question, label string) []string {
	text := question
	if label != "" {
		text += "\n\n" + label
	}
	if d.Flavor == KDialog {
		return []string{"--yesno", text, "--title", d.opts.Title}
	}
	return []string{"--title=" + d.opts.Title, "--width=500", "--question", "--text=" + text}
}

func (d *Dialog) infoArgs(text string) []string {
	if d.Flavor == KDialog {
		return []string{"--msgbox", text, "--title", d.opts.Title}
	}
	return []string{"--title=" + d.opts.Title, "--info", "--width=500", "--text=" + text}
}

func (d *Dialog) warnArgs(text string) []string {
	if d.Flavor == KDialog {
		return []string{"--sorry", text, "--title", d.opts.Title}
	}
	return []string{"--title=" + d.opts.Title, "--warning", "--text=" + text}
}

func (d *Dialog) entryArgs(label string, show bool, initial string) []string {
	if d.Flavor == KDialog {
		if !show {
			return []string{"--password", label, "--title", d.opts.Title}
		}
		args := []string{"--inputbox", label}
		if initial != "" {
			args = append(args, initial)
		}
		return append(args, "--title", d.opts.Title)
	}
	args := []string{"--title=" + d.opts.Title, "--entry"}
	if !show {
		args = append(args, "--hide-text")
	}
	if initial != "" {
		args = append(args, "--entry-text="+initial)
	}
	return append(args, "--width=500", "--text="+label)
}

func (d *Dialog) fileArgs(title string) []string {
	m := d.opts.Messages
	if d.Flavor == KDialog {
		return []string{"--getopenfilename", ".", bundlePatterns + " | " + m.P12Filter, "--title", title}
	}
	return []string{
		"--file-selection",
		"--file-filter=" + m.P12Filter + " | " + bundlePatterns,
		"--file-filter=" + m.AllFilter + " | *",
		"--title=" + title,
	}
}
