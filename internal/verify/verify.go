// Package verify implements spec.md §4.5's Verifier: the external
// collaborator that decides whether a candidate project still reproduces
// the target issue. Grounded on original_source/tests/minimize.rs's
// Options (script_path, no_verify) and on the teacher's process-execution
// idiom in pkg/framework (os/exec with context-bound timeouts).
package verify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/shrinklab/minimize/internal/corekind"
)

// Verifier decides whether projectDir still reproduces the target issue.
// A true result means "reproduces" (spec.md §4.5); false means it does
// not. A returned error means the verifier itself failed to run, distinct
// from running and reporting non-reproduction (corekind.ErrVerifierError).
type Verifier interface {
	Reproduces(ctx context.Context, projectDir string) (bool, error)
}

// CommandVerifier runs an external script or command against projectDir
// and treats a zero exit status as "reproduces", any other exit status as
// "does not reproduce" (the convention original_source's script_path
// option uses; see always_success.sh in its test helper).
type CommandVerifier struct {
	// Command is the executable to run, resolved relative to projectDir
	// if not absolute.
	Command string
	// Args are passed to Command; projectDir is not implicitly appended.
	Args []string
	// Timeout bounds a single verifier invocation. Zero means no timeout.
	Timeout time.Duration
}

// NewCommandVerifier builds a CommandVerifier from a script path and
// optional arguments.
func NewCommandVerifier(command string, args []string, timeout time.Duration) *CommandVerifier {
	return &CommandVerifier{Command: command, Args: args, Timeout: timeout}
}

// Reproduces runs the configured command in projectDir.
func (v *CommandVerifier) Reproduces(ctx context.Context, projectDir string) (bool, error) {
	runCtx := ctx
	if v.Timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, v.Command, v.Args...) //nolint:gosec // command is operator-supplied verifier config, not user input
	cmd.Dir = projectDir

	err := cmd.Run()
	if err == nil {
		return true, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return false, fmt.Errorf("%w: verifier timed out after %s", corekind.ErrVerifierError, v.Timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}

	return false, fmt.Errorf("%w: running verifier: %w", corekind.ErrVerifierError, err)
}

// NoVerifyVerifier always reports that the project reproduces the issue,
// skipping external verification entirely. Grounded on
// original_source/tests/minimize.rs's no_verify Options field, used there
// to test passes in isolation from a real build/reproduction script.
type NoVerifyVerifier struct{}

// Reproduces always returns true.
func (NoVerifyVerifier) Reproduces(context.Context, string) (bool, error) {
	return true, nil
}
