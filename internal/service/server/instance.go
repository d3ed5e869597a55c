package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	ps "github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another crew-server process is found.
var ErrAlreadyRunning = errors.New("another crew-server instance is running")

// processLister returns running processes. Replaced in tests.
type processLister func() ([]ps.Process, error)

// ensureSingleInstance fails when a process with the same executable name as
// this one is running.
func ensureSingleInstance(list processLister, executable string) error {
	processList, err := list()
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if !sameExecutable(process.Executable(), executable) {
			continue
		}

		return fmt.Errorf("%w: pid %d", ErrAlreadyRunning, process.Pid())
	}

	return nil
}

// currentExecutable returns the base name of the running binary.
func currentExecutable() string {
	path, err := os.Executable()
	if err != nil {
		return filepath.Base(os.Args[0])
	}

	return filepath.Base(path)
}

// sameExecutable compares executable names, ignoring case on Windows.
func sameExecutable(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}

	return a == b
}
