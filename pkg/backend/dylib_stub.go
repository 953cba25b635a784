//go:build !((linux || darwin) && (amd64 || arm64))

package backend

import "fmt"

// Dynamic plugin loading is only wired for the platforms the purego loader
// supports; elsewhere only built-in drivers are available.
func openLibrary(path string) (Driver, error) {
	return nil, fmt.Errorf("dynamic driver loading is not supported on this platform")
}
