package plugin

import "testing"

func TestNopLibrary(t *testing.T) {
	var lib Library = NopLibrary{}

	if lib.Path() != "" {
		t.Errorf("Expected an empty path, got %q", lib.Path())
	}
	addr, err := lib.Symbol("anything")
	if err != nil || addr != 0 {
		t.Errorf("Expected a zero symbol without error, got %#x, %v", addr, err)
	}
	if err := lib.Close(); err != nil {
		t.Errorf("Expected close to succeed, got %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("/nonexistent/plugin.so"); err == nil {
		t.Error("Expected an error opening a missing library")
	}
}
