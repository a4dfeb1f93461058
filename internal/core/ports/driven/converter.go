package driven

import "context"

// Converter turns raw source bytes into markdown.
// Each converter handles a fixed set of file extensions.
type Converter interface {
	// Name identifies the converter in logs.
	Name() string

	// Extensions returns the lower-case extensions handled, with leading dot.
	Extensions() []string

	// Convert produces markdown from content. name is the locator base name.
	// Output must be a pure function of the inputs.
	Convert(ctx context.Context, name string, content []byte) (string, error)
}

// ConverterRegistry selects a converter by locator extension.
type ConverterRegistry interface {
	// Register adds a converter. Later registrations win for shared extensions.
	Register(converter Converter)

	// Lookup returns the converter for locator.
	// Returns domain.ErrUnsupportedFormat if none matches.
	Lookup(locator string) (Converter, error)

	// Extensions returns all supported extensions, sorted.
	Extensions() []string
}
