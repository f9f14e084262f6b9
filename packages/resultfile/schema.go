package resultfile

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// documentSchema describes the persisted JSON run document. Verbosity
// levels add optional fields, so only the level-1 core is required.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["run_info", "test_results"],
  "properties": {
    "run_info": {
      "type": "object",
      "required": ["summary", "timing", "execution"],
      "properties": {
        "summary": {
          "type": "object",
          "required": ["total_tests", "passed", "failed", "errors", "skipped", "success_rate"],
          "properties": {
            "total_tests": {"type": "integer", "minimum": 0},
            "passed": {"type": "integer", "minimum": 0},
            "failed": {"type": "integer", "minimum": 0},
            "errors": {"type": "integer", "minimum": 0},
            "skipped": {"type": "integer", "minimum": 0},
            "success_rate": {"type": "number", "minimum": 0, "maximum": 100}
          }
        },
        "timing": {
          "type": "object",
          "required": ["duration", "start_time", "end_time"],
          "properties": {
            "duration": {"type": "number", "minimum": 0},
            "start_time": {"type": "string"},
            "end_time": {"type": "string"}
          }
        },
        "execution": {
          "type": "object",
          "required": ["command", "run_id", "exit_code"],
          "properties": {
            "command": {"type": "string"},
            "run_id": {"type": "string"},
            "exit_code": {"type": "integer"},
            "interrupted": {"type": "boolean"}
          }
        }
      }
    },
    "test_results": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name", "status", "duration", "timestamp"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "suite": {"type": "string"},
          "status": {"enum": ["passed", "failed", "errored", "skipped"]},
          "duration": {"type": "number", "minimum": 0},
          "timestamp": {"type": "string"},
          "metadata": {"type": "object"},
          "full_name": {"type": "string"},
          "error_info": {
            "type": "object",
            "required": ["type", "message"],
            "properties": {
              "type": {"type": "string"},
              "message": {"type": "string"},
              "traceback": {"type": "string"},
              "file_path": {"type": "string"},
              "line_number": {"type": "integer"}
            }
          },
          "captured_output": {"type": "string"}
        }
      }
    }
  }
}`

// Validate checks raw JSON against the run-document schema.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validating result document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var problems []string
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("result document is not valid:\n  %s", strings.Join(problems, "\n  "))
}
