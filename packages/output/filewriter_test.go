package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teeterhq/teeter/packages/events"
	"github.com/teeterhq/teeter/packages/resultfile"
)

func finished(name string, status events.Status) events.TestFinished {
	return events.TestFinished{
		Unit:     sampleUnit(name),
		Status:   status,
		Duration: time.Millisecond,
		Time:     time.Now(),
	}
}

func TestFileSinkWritesTextDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.txt")
	sink, err := NewFileSink(path, FileWithFormat(FileFormatText))
	require.NoError(t, err)

	sink.Handle(events.RunStarted{RunID: "r1", Command: "teeter run", Total: 2, Time: time.Now()})
	sink.Handle(finished("passes", events.StatusPassed))
	sink.Handle(events.TestFinished{
		Unit: sampleUnit("fails"), Status: events.StatusFailed,
		Message: "want 1, got 2", Duration: 2 * time.Millisecond,
	})
	sink.Handle(events.RunFinished{Summary: events.Summary{
		TestsRun: 2, Passed: 1, Failed: 1, Duration: 3 * time.Millisecond,
	}})
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Command: teeter run")
	assert.Contains(t, out, "PASS demo.passes")
	assert.Contains(t, out, "FAIL demo.fails")
	assert.Contains(t, out, "Success Rate: 50.0%")
	assert.Contains(t, out, "Exit Code: 1")
}

func TestFileSinkPreservesEventOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.txt")
	sink, err := NewFileSink(path, FileWithFormat(FileFormatText), FileWithQueueSize(8))
	require.NoError(t, err)

	const n = 10000
	sink.Handle(events.RunStarted{Total: n, Time: time.Now()})
	for i := 0; i < n; i++ {
		sink.Handle(finished(fmt.Sprintf("unit_%06d", i), events.StatusPassed))
	}
	sink.Handle(events.RunFinished{Summary: events.Summary{TestsRun: n, Passed: n}})
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var resultLines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(line, "PASS ") {
			resultLines = append(resultLines, line)
		}
	}
	require.Len(t, resultLines, n, "every enqueued job must be written before Close returns")
	for i, line := range resultLines {
		require.Contains(t, line, fmt.Sprintf("unit_%06d", i), "file order must match production order")
	}
}

func TestFileSinkJSONDocumentValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	sink, err := NewFileSink(path, FileWithFormat(FileFormatJSON), FileWithVerbosity(3))
	require.NoError(t, err)

	start := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	sink.Handle(events.RunStarted{RunID: "r1", Command: "teeter run --log-file run.json", Total: 2, Time: start})
	sink.Handle(finished("passes", events.StatusPassed))
	sink.Handle(events.TestFinished{
		Unit: sampleUnit("errs"), Status: events.StatusErrored,
		Message: "panic: boom", Trace: "stack", Log: "captured",
	})
	sink.Handle(events.RunFinished{Summary: events.Summary{
		RunID: "r1", Command: "teeter run --log-file run.json",
		TestsRun: 2, Passed: 1, Errored: 1,
		Duration: 4 * time.Millisecond, Start: start, End: start.Add(4 * time.Millisecond),
	}})
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NoError(t, resultfile.Validate(data))
}

func TestFileSinkAppendMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.txt")

	writeRun := func(append bool) {
		sink, err := NewFileSink(path, FileWithFormat(FileFormatText), FileWithAppend(append))
		require.NoError(t, err)
		sink.Handle(events.RunStarted{Total: 1, Time: time.Now()})
		sink.Handle(finished("only", events.StatusPassed))
		sink.Handle(events.RunFinished{Summary: events.Summary{TestsRun: 1, Passed: 1}})
		require.NoError(t, sink.Close())
	}

	writeRun(false)
	writeRun(true)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "=== teeter test run ==="), "append keeps the first run")

	writeRun(false)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "=== teeter test run ==="), "overwrite truncates")
}

func TestFileSinkCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "run.txt")
	sink, err := NewFileSink(path)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestFileSinkReportsFaultOnce(t *testing.T) {
	calls := 0
	s := &FileSink{onError: func(error) { calls++ }}

	s.report(errors.New("first"))
	s.report(errors.New("second"))
	assert.Equal(t, 1, calls, "only the first fault is surfaced")
	assert.EqualError(t, s.werr, "first")
}

func TestFileSinkCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.txt")
	sink, err := NewFileSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Close())
	require.NoError(t, sink.Close())
}

func TestParseFileFormat(t *testing.T) {
	for _, alias := range []string{"text", "txt", ""} {
		got, err := ParseFileFormat(alias)
		require.NoError(t, err)
		assert.Equal(t, FileFormatText, got)
	}
	got, err := ParseFileFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FileFormatJSON, got)

	_, err = ParseFileFormat("xml")
	assert.Error(t, err)
}
