//go:build darwin || freebsd || linux

package plugin

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// DynLibrary wraps a dynamically loaded plugin binary.
type DynLibrary struct {
	path   string
	handle uintptr
}

// Open loads the shared library at path. Symbols resolve lazily and stay
// local to the handle so two plugins exporting the same names can coexist.
func Open(path string) (*DynLibrary, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("plugin: open %s: %w", path, err)
	}
	return &DynLibrary{path: path, handle: handle}, nil
}

// Path returns the file the library was loaded from.
func (l *DynLibrary) Path() string { return l.path }

// Symbol resolves an exported symbol to its address.
func (l *DynLibrary) Symbol(name string) (uintptr, error) {
	if l.handle == 0 {
		return 0, fmt.Errorf("plugin: %s is closed", l.path)
	}
	addr, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return 0, fmt.Errorf("plugin: symbol %s in %s: %w", name, l.path, err)
	}
	return addr, nil
}

// Close releases the library. Closing twice is safe.
func (l *DynLibrary) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	if err != nil {
		return fmt.Errorf("plugin: close %s: %w", l.path, err)
	}
	return nil
}
