package hostexec

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerCapturesStdout(t *testing.T) {
	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	require.Error(t, err)
	assert.True(t, IsExit(err))

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)
	assert.Equal(t, "boom", exitErr.Stderr)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), "definitely-not-a-real-binary-homenav")
	require.Error(t, err)
	assert.False(t, IsExit(err))
}

func TestExecRunnerTimeout(t *testing.T) {
	_, err := ExecRunner{Timeout: 50 * time.Millisecond}.Run(context.Background(), "sleep", "5")
	require.Error(t, err)
	assert.False(t, IsExit(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
