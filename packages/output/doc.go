// Package output fans the execution event stream out to its
// destinations: the broadcast hub delivers each event to every
// registered sink in order, the console sink renders to the terminal,
// and the file sink persists the stream through a background writer.
package output
