package driver

import (
	"encoding/json"
	"fmt"
	"os"
)

// RunLog records one byte-size sample per pass boundary across a run, for
// cmd/minimize's report subcommand to chart with go-echarts (SPEC_FULL.md
// DOMAIN STACK). Not present in original_source; supplemented because a
// reduction run otherwise leaves no record of its own progress once it
// exits.
type RunLog struct {
	Samples []int64 `json:"project_size_samples"`
}

func (l *RunLog) record(size int64) {
	l.Samples = append(l.Samples, size)
}

// WriteJSON writes the log to path as JSON.
func (l *RunLog) WriteJSON(path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling run log: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec,mnd // diagnostic artifact, not a secret
		return fmt.Errorf("writing run log to %s: %w", path, err)
	}

	return nil
}

// ReadRunLog reads a RunLog previously written by WriteJSON.
func ReadRunLog(path string) (*RunLog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading run log from %s: %w", path, err)
	}

	var log RunLog

	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("unmarshalling run log: %w", err)
	}

	return &log, nil
}
