package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveSource turns a user supplied backup location into the form the
// daemon expects: an absolute path for files, or a bare bundled asset name.
// A name without a separator is treated as a file only if it exists in the
// working directory. A leading "~/" expands to the home directory.
func ResolveSource(arg string) (string, error) {
	arg, err := expandHome(arg)
	if err != nil {
		return "", err
	}
	if !strings.ContainsRune(arg, '/') {
		if _, err := os.Stat(arg); err != nil {
			return arg, nil
		}
	}
	return absolute(arg)
}

// ResolveTarget returns the absolute path an export should be written to.
func ResolveTarget(arg string) (string, error) {
	arg, err := expandHome(arg)
	if err != nil {
		return "", err
	}
	return absolute(arg)
}

func expandHome(arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("backup path is empty")
	}
	rest, ok := strings.CutPrefix(arg, "~/")
	if !ok {
		return arg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand home: %w", err)
	}
	return filepath.Join(home, rest), nil
}

func absolute(arg string) (string, error) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", arg, err)
	}
	return abs, nil
}
