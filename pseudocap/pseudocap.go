// Package pseudocap builds autoloaders: a bootstrap stub ("cap") followed by an offset table
// and up to six signed files, laid out exactly like the reference packer for the stub's release.
package pseudocap

// PrintlnFunc is used for logging the build progress.
type PrintlnFunc func(format string, args ...interface{})

// DefaultWorkDir is used whenever a working directory is left empty.
const DefaultWorkDir = "."

// ChunkSize is the buffer size used to stream the stub and signed files into an image.
const ChunkSize = 4096

// Request describes a single autoloader build.
type Request struct {
	// Filename of the image, relative to WorkDir. No extension is added.
	Filename string

	// Files are glob patterns of the signed files, in slot order.
	// Empty entries stand for unused slots.
	Files []string

	// WorkDir receives offset.hex and the image. Defaults to DefaultWorkDir.
	WorkDir string

	// Stub is an explicit bootstrap stub. If empty, LocateStub searches WorkDir.
	Stub string

	// Logger (optional) reports the progress.
	Logger PrintlnFunc

	// Progress (optional) is called with the number of bytes written after every chunk.
	Progress func(n int)
}

func (r *Request) workDir() string {
	if r.WorkDir == "" {
		return DefaultWorkDir
	}
	return r.WorkDir
}

func (r *Request) logger() PrintlnFunc {
	if r.Logger == nil {
		return func(string, ...interface{}) {}
	}
	return r.Logger
}
