package verify_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrinklab/minimize/internal/corekind"
	"github.com/shrinklab/minimize/internal/verify"
)

func shell(t *testing.T) (command string, flag string) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("verifier tests assume a POSIX shell")
	}

	return "/bin/sh", "-c"
}

func TestCommandVerifier_ExitZero_Reproduces(t *testing.T) {
	t.Parallel()

	command, flag := shell(t)
	v := verify.NewCommandVerifier(command, []string{flag, "exit 0"}, 0)

	reproduces, err := v.Reproduces(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.True(t, reproduces)
}

func TestCommandVerifier_NonZeroExit_DoesNotReproduce(t *testing.T) {
	t.Parallel()

	command, flag := shell(t)
	v := verify.NewCommandVerifier(command, []string{flag, "exit 1"}, 0)

	reproduces, err := v.Reproduces(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.False(t, reproduces)
}

func TestCommandVerifier_MissingExecutable_IsVerifierError(t *testing.T) {
	t.Parallel()

	v := verify.NewCommandVerifier("/no/such/verifier-binary", nil, 0)

	_, err := v.Reproduces(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, corekind.ErrVerifierError)
}

func TestCommandVerifier_Timeout_IsVerifierError(t *testing.T) {
	t.Parallel()

	command, flag := shell(t)
	v := verify.NewCommandVerifier(command, []string{flag, "sleep 1"}, 5*time.Millisecond)

	_, err := v.Reproduces(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, corekind.ErrVerifierError)
}

func TestNoVerifyVerifier_AlwaysReproduces(t *testing.T) {
	t.Parallel()

	reproduces, err := verify.NoVerifyVerifier{}.Reproduces(context.Background(), "/anywhere")
	require.NoError(t, err)
	assert.True(t, reproduces)
}
