package sdb

import (
	"os"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ServerRunning reports whether an sdb process (the host-side server) is alive.
func ServerRunning() (bool, error) {
	processes, err := ps.Processes()
	if err != nil {
		return false, err
	}

	self := os.Getpid()

	for _, process := range processes {
		if process.Pid() == self {
			continue
		}

		if isSDBExecutable(process.Executable()) {
			return true, nil
		}
	}

	return false, nil
}

func isSDBExecutable(name string) bool {
	name = strings.ToLower(name)

	return name == DefaultExecutable || name == DefaultExecutable+".exe"
}
