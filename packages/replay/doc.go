// Package replay reconstructs and re-executes a previously recorded
// test run from its persisted result file.
package replay
