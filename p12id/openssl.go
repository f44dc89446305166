package p12id

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// passEnv carries the passphrase to openssl so it never shows up in argv.
const passEnv = "CATINSTALL_PKCS12_PASS"

// RunFunc runs a command with stdin and extra environment and returns its standard output.
type RunFunc func(ctx context.Context, stdin []byte, env []string, name string, args ...string) ([]byte, error)

// OpenSSL inspects the bundle with "openssl pkcs12".
type OpenSSL struct {
	Path string
	Run  RunFunc // Defaults to running the process with os/exec.
}

var _ Extractor = (*OpenSSL)(nil)

// Extract runs openssl with the bundle on stdin. A non-zero exit is ErrWrongPassphrase.
func (o *OpenSSL) Extract(ctx context.Context, bundle []byte, passphrase string, altIdentity bool) (Identity, error) {
	run := o.Run
	if run == nil {
		run = execRun
	}
	path := o.Path
	if path == "" {
		path = "openssl"
	}
	out, err := run(ctx, bundle, []string{passEnv + "=" + passphrase},
		path, "pkcs12", "-passin", "env:"+passEnv, "-nokeys", "-clcerts")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Identity{}, decodeError{err: err}
		}
		return Identity{}, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	if altIdentity {
		return Identity{}, nil
	}
	fields, ok := ParseSubject(string(out))
	if !ok {
		return Identity{}, ErrNoUsableIdentity
	}
	return SubjectIdentity(fields)
}

func execRun(ctx context.Context, stdin []byte, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Env = append(os.Environ(), env...)
	return cmd.Output()
}

var (
	subjectLine    = regexp.MustCompile(`(?m)subject=/?(.*)$`)
	fieldSeparator = regexp.MustCompile(`\s*[/,]\s*`)
	valueSeparator = regexp.MustCompile(`\s*=\s*`)
)

// ParseSubject finds the first subject line in openssl output and returns its
// fields keyed by lower-case attribute name. Both the slash form
// "subject=/CN=a/emailAddress=b" and the comma form "subject=CN = a, emailAddress = b"
// are accepted. A later duplicate attribute replaces an earlier one.
func ParseSubject(out string) (map[string]string, bool) {
	m := subjectLine.FindStringSubmatch(out)
	if m == nil {
		return nil, false
	}
	fields := make(map[string]string)
	for _, field := range fieldSeparator.Split(strings.TrimSpace(m[1]), -1) {
		if field == "" {
			continue
		}
		kv := valueSeparator.Split(field, 2)
		if len(kv) != 2 {
			continue
		}
		fields[strings.ToLower(kv[0])] = strings.TrimSpace(kv[1])
	}
	return fields, true
}

// SubjectIdentity prefers a cn containing '@', then an emailaddress containing '@'.
func SubjectIdentity(fields map[string]string) (Identity, error) {
	if cn := fields["cn"]; strings.Contains(cn, "@") {
		return Identity{Username: cn, Source: "commonName"}, nil
	}
	if email := fields["emailaddress"]; strings.Contains(email, "@") {
		return Identity{Username: email, Source: "emailAddress"}, nil
	}
	return Identity{}, ErrNoUsableIdentity
}
