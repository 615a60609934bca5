package service

import (
	"errors"
	"os"
	"syscall"
)

// Alive reports whether a process with the given pid exists. Signal 0
// probes existence without delivering anything; EPERM still means the
// process is there, it just belongs to someone else.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	return errors.Is(err, syscall.EPERM)
}

// Terminate sends a graceful-stop signal to the process with the given pid.
func Terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	return proc.Signal(syscall.SIGTERM)
}
