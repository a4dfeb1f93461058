// Package converters provides implementations of the Converter interface
// for the source formats the to_markdown stage accepts. Each converter
// knows how to turn one family of file extensions into markdown.
//
// Converters are registered with the Registry at startup.
package converters
