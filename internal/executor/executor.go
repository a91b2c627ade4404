package executor

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog"
)

// Execute runs a generated command through the user's shell, wired to the
// current stdin/stdout/stderr.
func Execute(log zerolog.Logger, command string) error {
	var shell string
	var shellArgs []string

	if runtime.GOOS == "windows" {
		shell = "cmd"
		shellArgs = []string{"/C", command}
	} else {
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
		shellArgs = []string{"-c", command}
	}

	log.Debug().Str("shell", shell).Str("command", command).Msg("executing command")

	cmd := exec.Command(shell, shellArgs...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			log.Debug().Int("exit_code", exitError.ExitCode()).Msg("command failed")
		}
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}
