// Package resultfile defines the persisted run document: its JSON
// shape at each verbosity level, schema validation for consumers, and
// extraction of the recorded command for replay.
package resultfile
