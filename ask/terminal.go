package ask

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
)

// lineEditor is the subset of *readline.Instance the terminal backend uses.
type lineEditor interface {
	SetPrompt(prompt string)
	ReadlineWithDefault(what string) (string, error)
	ReadPassword(prompt string) ([]byte, error)
	Stdout() io.Writer
	Close() error
}

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	hintStyle     = lipgloss.NewStyle().Faint(true)
)

// Terminal prompts on the controlling terminal.
type Terminal struct {
	rl   lineEditor
	opts Options

	// Dir is searched for a single PKCS#12 bundle to offer as the default file.
	Dir string
}

var _ Port = (*Terminal)(nil)

// NewTerminal opens a line editor on stdin and stdout.
func NewTerminal(opts Options) (*Terminal, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return newTerminal(rl, opts), nil
}

func newTerminal(rl lineEditor, opts Options) *Terminal {
	return &Terminal{rl: rl, opts: opts, Dir: "."}
}

// Close releases the terminal.
func (t *Terminal) Close() error {
	return t.rl.Close()
}

func (t *Terminal) readLine(ctx context.Context, prompt, def string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.rl.SetPrompt(prompt)
	line, err := t.rl.ReadlineWithDefault(def)
	if err != nil {
		return "", lineError(err)
	}
	return strings.TrimSpace(line), nil
}

func lineError(err error) error {
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return ErrCancelled
	}
	return err
}

func (t *Terminal) AskYesNo(ctx context.Context, question, label string, def Answer) (bool, error) {
	m := t.opts.Messages
	yes := strings.ToUpper(firstRune(m.Yes))
	no := strings.ToUpper(firstRune(m.No))

	out := t.rl.Stdout()
	fmt.Fprintf(out, "\n-------\n%s\n\n", questionStyle.Render(question))

	prompt := fmt.Sprintf("%s (%s/%s) ", label, m.Yes, m.No)
	switch def {
	case AnswerYes:
		prompt += "[" + yes + "]"
	case AnswerNo:
		prompt += "[" + no + "]"
	}
	for {
		in, err := t.readLine(ctx, prompt, "")
		if err != nil {
			return false, err
		}
		if in == "" {
			switch def {
			case AnswerYes:
				return true, nil
			case AnswerNo:
				return false, nil
			}
			continue
		}
		switch strings.ToUpper(firstRune(in)) {
		case yes:
			return true, nil
		case no:
			return false, nil
		}
	}
}

func (t *Terminal) PromptText(ctx context.Context, label string, show bool, initial string) (string, error) {
	prompt := label + ": "
	for {
		var (
			in  string
			err error
		)
		if show {
			in, err = t.readLine(ctx, prompt, initial)
		} else {
			if err = ctx.Err(); err != nil {
				return "", err
			}
			var b []byte
			b, err = t.rl.ReadPassword(prompt)
			if err != nil {
				err = lineError(err)
			}
			in = strings.TrimSpace(string(b))
		}
		if err != nil {
			return "", err
		}
		if in != "" {
			return in, nil
		}
	}
}

// SelectFile reads a path. When Dir holds exactly one bundle it is offered
// as the default for the first answer.
func (t *Terminal) SelectFile(ctx context.Context, title string) (string, error) {
	def := singleBundle(t.Dir)
	for {
		prompt := title
		if def != "" {
			prompt += hintStyle.Render(" [" + def + "]")
		}
		in, err := t.readLine(ctx, prompt+": ", "")
		if err != nil {
			return "", err
		}
		if in == "" && def != "" {
			return filepath.Join(t.Dir, def), nil
		}
		def = ""
		if in != "" {
			if st, err := os.Stat(in); err == nil && st.Mode().IsRegular() {
				return in, nil
			}
		}
		t.Warn(ctx, t.opts.Messages.FileNotFound)
	}
}

func (t *Terminal) Inform(ctx context.Context, text string) {
	fmt.Fprintln(t.rl.Stdout(), text)
}

func (t *Terminal) Warn(ctx context.Context, text string) {
	fmt.Fprintln(t.rl.Stdout(), warnStyle.Render(text))
}

// singleBundle returns the name of the only .p12 or .pfx file in dir.
func singleBundle(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var found string
	count := 0
	for _, e := range entries {
		if !e.Type().IsRegular() || !isBundleName(e.Name()) {
			continue
		}
		count++
		found = e.Name()
	}
	if count != 1 {
		return ""
	}
	return found
}

func isBundleName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".p12", ".pfx":
		return true
	}
	return false
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}
