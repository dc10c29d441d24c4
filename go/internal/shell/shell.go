// Package shell runs timer completion commands through the user's shell.
package shell

import (
	"context"
	"os/exec"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultShell is used when no shell is configured.
const DefaultShell = "bash"

// Runner starts each command as `<shell> -c <command>` and does not wait for it.
type Runner struct {
	Shell string

	wg sync.WaitGroup
}

// NewRunner returns a Runner using shell, or DefaultShell when empty.
func NewRunner(shell string) *Runner {
	if shell == "" {
		shell = DefaultShell
	}
	return &Runner{Shell: shell}
}

// Command builds the process for command. Output is discarded.
func (r *Runner) Command(ctx context.Context, command string) *exec.Cmd {
	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}
	return exec.CommandContext(ctx, shell, "-c", command)
}

// Run starts command in the background. Failures are logged and otherwise ignored.
func (r *Runner) Run(command string) {
	cmd := r.Command(context.Background(), command)
	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("shell", cmd.Path).Msg("failed to start completion command")
		return
	}

	log.Debug().Int("pid", cmd.Process.Pid).Msg("completion command started")

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := cmd.Wait(); err != nil {
			log.Debug().Err(err).Int("pid", cmd.Process.Pid).Msg("completion command failed")
		}
	}()
}

// Wait blocks until every started command has exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}
