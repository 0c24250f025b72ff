// Package browser opens URLs and files in the user's default application.
package browser

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/skratchdot/open-golang/open"
)

// ErrNothingToOpen is returned for an empty target.
var ErrNothingToOpen = errors.New("nothing to open")

// starter launches the platform opener.
var starter = open.Start

// Open opens target without waiting for the application to exit. target is a
// URL or a local path; relative paths resolve against the working directory.
func Open(target string) error {
	target, err := Resolve(target)
	if err != nil {
		return err
	}
	return starter(target)
}

// Resolve normalizes target into something the platform opener accepts.
func Resolve(target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", ErrNothingToOpen
	}

	if u, err := url.Parse(target); err == nil && len(u.Scheme) > 1 {
		return target, nil
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return abs, nil
}
