package plugin

// Library is a loaded plugin binary. The host keeps one per instance and
// releases it when the instance closes.
type Library interface {
	// Path returns the file the library was loaded from.
	Path() string

	// Symbol resolves an exported symbol to its address.
	Symbol(name string) (uintptr, error)

	// Close releases the library. Symbols resolved from it are invalid
	// afterwards.
	Close() error
}

// NopLibrary stands in for built-in processors that were never loaded
// from a file.
type NopLibrary struct{}

func (NopLibrary) Path() string { return "" }

func (NopLibrary) Symbol(name string) (uintptr, error) { return 0, nil }

func (NopLibrary) Close() error { return nil }
