package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shrinklab/minimize/internal/driver"
	"github.com/shrinklab/minimize/internal/passes/privatize"
	"github.com/shrinklab/minimize/internal/reduce"
	"github.com/shrinklab/minimize/internal/syntax"
	"github.com/shrinklab/minimize/internal/verify"
)

// Tool name constants.
const (
	ToolNameRunPasses = "minimize_run_passes"
	ToolNameStatus    = "minimize_status"
)

const (
	runPassesToolDescription = "Run the configured reduction passes against a project directory until no further change reproduces the target issue."
	statusToolDescription    = "Report the byte-size trend recorded by the most recent reduction run's log file."
)

// Sentinel errors for tool input validation.
var (
	ErrEmptyProjectDir = errors.New("project_dir parameter is required and must not be empty")
	ErrEmptyVerifyCmd  = errors.New("verify_command is required unless no_verify is true")
)

// RunPassesInput is the input schema for the minimize_run_passes tool.
type RunPassesInput struct {
	ProjectDir    string   `json:"project_dir"              jsonschema:"absolute path to the project to reduce"`
	Language      string   `json:"language,omitempty"       jsonschema:"source language: rust or go (default: rust)"`
	VerifyCommand string   `json:"verify_command,omitempty" jsonschema:"command that exits zero iff the issue still reproduces"`
	VerifyArgs    []string `json:"verify_args,omitempty"    jsonschema:"arguments to verify_command"`
	NoVerify      bool     `json:"no_verify,omitempty"      jsonschema:"skip verification; treat every trial as reproducing (testing only)"`
}

// StatusInput is the input schema for the minimize_status tool.
type StatusInput struct {
	RunLogPath string `json:"run_log_path" jsonschema:"path to a run log written by a prior run_passes call"`
}

// ToolOutput is a generic wrapper for tool results, mirroring the
// teacher's pkg/mcp.ToolOutput.
type ToolOutput struct {
	Data any `json:"data"`
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}

// handleRunPasses processes minimize_run_passes tool calls.
func handleRunPasses(ctx context.Context, _ *mcpsdk.CallToolRequest, input RunPassesInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.ProjectDir == "" {
		return errorResult(ErrEmptyProjectDir)
	}

	if !input.NoVerify && input.VerifyCommand == "" {
		return errorResult(ErrEmptyVerifyCmd)
	}

	language := input.Language
	if language == "" {
		language = "rust"
	}

	registry := syntax.DefaultRegistry()

	binding, err := registry.ForLanguage(language)
	if err != nil {
		return errorResult(err)
	}

	var verifier verify.Verifier = verify.NewCommandVerifier(input.VerifyCommand, input.VerifyArgs, defaultToolVerifyTimeout)
	if input.NoVerify {
		verifier = verify.NoVerifyVerifier{}
	}

	single := syntax.NewRegistry(syntax.Binding{
		Language:   binding.Language,
		Parser:     binding.Parser,
		Formatter:  binding.Formatter,
		Extensions: binding.Extensions,
	})

	passes := []reduce.Pass{privatize.New()}

	d := driver.New(input.ProjectDir, single, verifier, passes, nil, nil, nil)

	if err := d.RunPasses(ctx); err != nil {
		return errorResult(err)
	}

	return jsonResult(d.Log)
}

// handleStatus processes minimize_status tool calls.
func handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, input StatusInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	log, err := driver.ReadRunLog(input.RunLogPath)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(log)
}

// defaultToolVerifyTimeout bounds a single verifier invocation issued
// through the MCP tool surface, distinct from config.VerifierConfig.Timeout
// which governs CLI-driven runs.
const defaultToolVerifyTimeout = 5 * time.Minute
