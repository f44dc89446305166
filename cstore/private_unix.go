//go:build unix

package cstore

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ensurePrivateDir creates dir with mode 0700 or checks the existing one.
// It reports whether the directory already existed.
func ensurePrivateDir(dir string) (bool, error) {
	err := unix.Mkdir(dir, 0700)
	switch {
	case err == nil:
		// Mkdir is subject to the umask; make the mode explicit.
		if err := unix.Chmod(dir, 0700); err != nil {
			return false, fmt.Errorf("chmod state directory: %w", err)
		}
		return false, nil
	case !errors.Is(err, unix.EEXIST):
		return false, fmt.Errorf("create state directory: %w", &os.PathError{Op: "mkdir", Path: dir, Err: err})
	}

	var st unix.Stat_t
	if err := unix.Lstat(dir, &st); err != nil {
		return true, fmt.Errorf("stat state directory: %w", &os.PathError{Op: "lstat", Path: dir, Err: err})
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return true, InsecureDirError{Path: dir, Reason: "not a directory"}
	}
	if st.Uid != uint32(unix.Geteuid()) {
		return true, InsecureDirError{Path: dir, Reason: fmt.Sprintf("owned by uid %d", st.Uid)}
	}
	if st.Mode&0o022 != 0 {
		return true, InsecureDirError{Path: dir, Reason: fmt.Sprintf("mode %#o is writable by others", st.Mode&0o777)}
	}
	return true, nil
}
