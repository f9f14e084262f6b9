package resultfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/teeterhq/teeter/packages/core/registry"
	"github.com/teeterhq/teeter/packages/events"
)

func sampleSummary() events.Summary {
	start := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	return events.Summary{
		RunID:    "run-1",
		Command:  "teeter run --category regression",
		TestsRun: 3, Passed: 1, Failed: 1, Errored: 1,
		Duration: 250 * time.Millisecond,
		Start:    start, End: start.Add(250 * time.Millisecond),
	}
}

func sampleResults() []events.TestFinished {
	u := func(name string, opts ...registry.Option) *registry.TestUnit {
		unit := &registry.TestUnit{Suite: "core", Name: name, File: "/repo/test_core.go", Line: 12}
		for _, opt := range opts {
			opt(&unit.Meta)
		}
		return unit
	}
	return []events.TestFinished{
		{Unit: u("passes", registry.Regression()), Status: events.StatusPassed, Duration: 10 * time.Millisecond, Time: time.Now()},
		{Unit: u("fails"), Status: events.StatusFailed, Message: "want 1, got 2", Duration: 5 * time.Millisecond, Time: time.Now()},
		{Unit: u("errs"), Status: events.StatusErrored, Message: "panic: boom", Trace: "goroutine 1:\n  main()", Log: "step 1 done", Time: time.Now()},
	}
}

func TestDocumentLevelOne(t *testing.T) {
	doc := New(sampleSummary(), sampleResults(), 1)
	data, err := doc.Marshal()
	require.NoError(t, err)

	assert.Equal(t, int64(3), gjson.GetBytes(data, "run_info.summary.total_tests").Int())
	assert.Equal(t, "teeter run --category regression", gjson.GetBytes(data, "run_info.execution.command").String())
	assert.Equal(t, int64(1), gjson.GetBytes(data, "run_info.execution.exit_code").Int())
	assert.Equal(t, "fails", gjson.GetBytes(data, "test_results.1.name").String())
	assert.False(t, gjson.GetBytes(data, "test_results.1.error_info").Exists(), "error detail starts at verbosity 2")
	require.NoError(t, Validate(data))
}

func TestDocumentLevelTwoAddsErrorDetail(t *testing.T) {
	doc := New(sampleSummary(), sampleResults(), 2)
	data, err := doc.Marshal()
	require.NoError(t, err)

	assert.Equal(t, "core.fails", gjson.GetBytes(data, "test_results.1.full_name").String())
	assert.Equal(t, "AssertionMismatch", gjson.GetBytes(data, "test_results.1.error_info.type").String())
	assert.Equal(t, "ExecutionFault", gjson.GetBytes(data, "test_results.2.error_info.type").String())
	assert.Equal(t, "/repo/test_core.go", gjson.GetBytes(data, "test_results.1.error_info.file_path").String())
	assert.Equal(t, "regression", gjson.GetBytes(data, "test_results.0.metadata.category").String())
	assert.False(t, gjson.GetBytes(data, "test_results.2.error_info.traceback").Exists(), "traces start at verbosity 3")
	require.NoError(t, Validate(data))
}

func TestDocumentLevelThreeAddsTraceAndOutput(t *testing.T) {
	doc := New(sampleSummary(), sampleResults(), 3)
	data, err := doc.Marshal()
	require.NoError(t, err)

	assert.Contains(t, gjson.GetBytes(data, "test_results.2.error_info.traceback").String(), "goroutine 1")
	assert.Equal(t, "step 1 done", gjson.GetBytes(data, "test_results.2.captured_output").String())
	require.NoError(t, Validate(data))
}

func TestValidateRejectsBrokenDocument(t *testing.T) {
	assert.Error(t, Validate([]byte(`{"run_info": {}}`)))
	assert.Error(t, Validate([]byte(`{
		"run_info": {"summary": {"total_tests": -1, "passed": 0, "failed": 0, "errors": 0, "skipped": 0, "success_rate": 0},
		             "timing": {"duration": 0, "start_time": "", "end_time": ""},
		             "execution": {"command": "x", "run_id": "y", "exit_code": 0}},
		"test_results": []
	}`)))
}

func TestParseFileJSON(t *testing.T) {
	doc := New(sampleSummary(), sampleResults(), 1)
	data, err := doc.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	rec, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "teeter run --category regression", rec.Command)
	assert.Equal(t, 3, rec.TotalTests)
	assert.Equal(t, 1, rec.Failures)
	assert.Equal(t, 1, rec.Errors)
}

func TestParseFileText(t *testing.T) {
	text := `=== teeter test run ===
Command: teeter run --exclude-slow
Started: 2026-08-29T12:00:00Z
`
	path := filepath.Join(t.TempDir(), "run.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	rec, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "teeter run --exclude-slow", rec.Command)
}

func TestParseFileNoCommand(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(txt, []byte("nothing here\n"), 0o644))
	_, err := ParseFile(txt)
	assert.Error(t, err)

	js := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(js, []byte("{not json"), 0o644))
	_, err = ParseFile(js)
	assert.Error(t, err)
}
