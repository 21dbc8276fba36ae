package segment

import "os"

// fileReader abstracts read operations needed by the cache and decoder.
type fileReader interface {
	Stat(name string) (os.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

// fileWriter abstracts write operations needed by the cache and renderer.
type fileWriter interface {
	WriteFile(name string, data []byte, perm os.FileMode) error
	Remove(name string) error
}

// Compile-time interface verification.
var (
	_ fileReader = osFileReader{}
	_ fileWriter = osFileWriter{}
)

// osFileReader implements fileReader using the os package.
type osFileReader struct{}

func (osFileReader) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

func (osFileReader) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- paths are derived from the decoder's own output, not user input
	return os.ReadFile(name)
}

// osFileWriter implements fileWriter using the os package.
type osFileWriter struct{}

func (osFileWriter) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (osFileWriter) Remove(name string) error { return os.Remove(name) }
