//go:build !(darwin || freebsd || linux)

package plugin

import "fmt"

// Open is unavailable on platforms without a dlopen loader. Built-in
// processors with NopLibrary still work everywhere.
func Open(path string) (Library, error) {
	return nil, fmt.Errorf("plugin: dynamic loading not supported on this platform")
}
