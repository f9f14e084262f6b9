package resultfile

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

// RecordedRun is what a replay consumer needs out of a persisted
// result file: the command that produced it and, when available, the
// recorded totals.
type RecordedRun struct {
	Command    string
	TotalTests int
	Failures   int
	Errors     int
	Skipped    int
}

// ParseFile extracts the recorded run from a persisted result file,
// dispatching on extension: .json files are read structurally, any
// other file is scanned as the text rendering.
func ParseFile(path string) (*RecordedRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return parseJSON(data)
	}
	return parseText(data)
}

func parseJSON(data []byte) (*RecordedRun, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("result file is not valid JSON")
	}

	command := gjson.GetBytes(data, "run_info.execution.command").String()
	if command == "" {
		// Early documents nested the command under summary.
		command = gjson.GetBytes(data, "run_info.summary.command").String()
	}
	if command == "" {
		return nil, fmt.Errorf("result file records no command")
	}

	summary := gjson.GetBytes(data, "run_info.summary")
	return &RecordedRun{
		Command:    command,
		TotalTests: int(summary.Get("total_tests").Int()),
		Failures:   int(summary.Get("failed").Int()),
		Errors:     int(summary.Get("errors").Int()),
		Skipped:    int(summary.Get("skipped").Int()),
	}, nil
}

func parseText(data []byte) (*RecordedRun, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if cmd, ok := strings.CutPrefix(line, "Command: "); ok {
			return &RecordedRun{Command: cmd}, nil
		}
		if cmd, ok := strings.CutPrefix(line, "Running: "); ok {
			return &RecordedRun{Command: cmd}, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning result file: %w", err)
	}
	return nil, fmt.Errorf("result file records no command")
}
