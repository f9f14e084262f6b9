// Package discovery walks the configured test locations, merges
// directory-based and tag-based categorization into one mapping, and
// produces the ordered, filtered sequence of test units to execute.
package discovery
