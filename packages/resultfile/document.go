package resultfile

import (
	"encoding/json"
	"time"

	"github.com/teeterhq/teeter/packages/events"
)

// Document is the single JSON document persisted per run.
type Document struct {
	RunInfo     RunInfo  `json:"run_info"`
	TestResults []Result `json:"test_results"`
}

// RunInfo groups the run-level sections.
type RunInfo struct {
	Summary   SummaryCounts `json:"summary"`
	Timing    Timing        `json:"timing"`
	Execution Execution     `json:"execution"`
}

// SummaryCounts are the per-status totals.
type SummaryCounts struct {
	TotalTests  int     `json:"total_tests"`
	Passed      int     `json:"passed"`
	Failed      int     `json:"failed"`
	Errors      int     `json:"errors"`
	Skipped     int     `json:"skipped"`
	SuccessRate float64 `json:"success_rate"`
}

// Timing is the run's wall-clock envelope.
type Timing struct {
	Duration  float64 `json:"duration"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
}

// Execution records how the run was started and how it ended.
type Execution struct {
	Command     string `json:"command"`
	RunID       string `json:"run_id"`
	ExitCode    int    `json:"exit_code"`
	Interrupted bool   `json:"interrupted,omitempty"`
}

// Result is one persisted unit outcome. Fields beyond the standard
// set appear only at higher verbosity levels.
type Result struct {
	Name      string         `json:"name"`
	Suite     string         `json:"suite,omitempty"`
	Status    string         `json:"status"`
	Duration  float64        `json:"duration"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`

	// Verbosity 2: error details and the fully qualified name.
	FullName  string     `json:"full_name,omitempty"`
	ErrorInfo *ErrorInfo `json:"error_info,omitempty"`

	// Verbosity 3: captured test log output.
	CapturedOutput string `json:"captured_output,omitempty"`
}

// ErrorInfo carries failure or fault details for one unit.
type ErrorInfo struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Traceback string `json:"traceback,omitempty"`
	FilePath  string `json:"file_path,omitempty"`
	Line      int    `json:"line_number,omitempty"`
}

// New assembles the document for one completed run at the given file
// verbosity (1: counts and per-unit lines; 2: + metadata, error detail
// and locations; 3: + full traces and captured output).
func New(sum events.Summary, results []events.TestFinished, verbosity int) *Document {
	doc := &Document{
		RunInfo: RunInfo{
			Summary: SummaryCounts{
				TotalTests:  sum.TestsRun,
				Passed:      sum.Passed,
				Failed:      sum.Failed,
				Errors:      sum.Errored,
				Skipped:     sum.Skipped,
				SuccessRate: roundRate(sum.SuccessRate()),
			},
			Timing: Timing{
				Duration:  sum.Duration.Seconds(),
				StartTime: sum.Start.Format(time.RFC3339Nano),
				EndTime:   sum.End.Format(time.RFC3339Nano),
			},
			Execution: Execution{
				Command:     sum.Command,
				RunID:       sum.RunID,
				ExitCode:    sum.ExitCode(),
				Interrupted: sum.Interrupted,
			},
		},
		TestResults: make([]Result, 0, len(results)),
	}

	for _, r := range results {
		doc.TestResults = append(doc.TestResults, newResult(r, verbosity))
	}
	return doc
}

func newResult(r events.TestFinished, verbosity int) Result {
	out := Result{
		Name:      r.Unit.Name,
		Suite:     r.Unit.Suite,
		Status:    string(r.Status),
		Duration:  r.Duration.Seconds(),
		Timestamp: r.Time.Format(time.RFC3339Nano),
	}

	if verbosity >= 2 {
		out.Metadata = r.Unit.Meta.Map()
		out.FullName = r.Unit.ID()
		if r.Status == events.StatusFailed || r.Status == events.StatusErrored {
			out.ErrorInfo = &ErrorInfo{
				Type:     errorType(r.Status),
				Message:  r.Message,
				FilePath: r.Unit.File,
				Line:     r.Unit.Line,
			}
			if verbosity >= 3 {
				out.ErrorInfo.Traceback = r.Trace
			}
		}
	}
	if verbosity >= 3 && r.Log != "" {
		out.CapturedOutput = r.Log
	}
	return out
}

func errorType(s events.Status) string {
	if s == events.StatusFailed {
		return "AssertionMismatch"
	}
	return "ExecutionFault"
}

// Marshal renders the document with two-space indentation.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func roundRate(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
