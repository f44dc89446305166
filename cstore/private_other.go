//go:build !unix

package cstore

import (
	"fmt"
	"os"
)

func ensurePrivateDir(dir string) (bool, error) {
	fi, err := os.Lstat(dir)
	if os.IsNotExist(err) {
		if err := os.Mkdir(dir, 0700); err != nil {
			return false, fmt.Errorf("create state directory: %w", err)
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat state directory: %w", err)
	}
	if !fi.IsDir() {
		return true, InsecureDirError{Path: dir, Reason: "not a directory"}
	}
	return true, nil
}
