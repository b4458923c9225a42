package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrinklab/minimize/internal/driver"
)

func TestHandleRunPasses_EmptyProjectDir_ReturnsError(t *testing.T) {
	t.Parallel()

	result, output, err := handleRunPasses(context.Background(), nil, RunPassesInput{NoVerify: true})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, ToolOutput{}, output)
}

func TestHandleRunPasses_MissingVerifyCommand_ReturnsError(t *testing.T) {
	t.Parallel()

	result, _, err := handleRunPasses(context.Background(), nil, RunPassesInput{ProjectDir: t.TempDir()})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleStatus_ReadsWrittenRunLog(t *testing.T) {
	t.Parallel()

	log := &driver.RunLog{Samples: []int64{100, 80, 64}}
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, log.WriteJSON(path))

	result, output, err := handleStatus(context.Background(), nil, StatusInput{RunLogPath: path})
	require.NoError(t, err)
	assert.False(t, result.IsError)

	got, ok := output.Data.(*driver.RunLog)
	require.True(t, ok)
	assert.Equal(t, []int64{100, 80, 64}, got.Samples)
}

func TestHandleStatus_MissingFile_ReturnsError(t *testing.T) {
	t.Parallel()

	result, _, err := handleStatus(context.Background(), nil, StatusInput{RunLogPath: filepath.Join(t.TempDir(), "missing.json")})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestJSONResult_EncodesValueAndSetsOutputData(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name"`
	}

	result, output, err := jsonResult(payload{Name: "x"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, payload{Name: "x"}, output.Data)
}

func TestErrorResult_SetsIsErrorAndMessage(t *testing.T) {
	t.Parallel()

	result, output, err := errorResult(os.ErrNotExist)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, ToolOutput{}, output)
	require.Len(t, result.Content, 1)
}
