package pseudocap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/capforge/autoloader/internal"
)

// StubName is the file name of a local stub override, locked to the separator version.
var StubName = "cap-" + internal.CapVersion + ".dat"

// FallbackStubName is checked after StubName.
const FallbackStubName = "cap.dat"

// LocateStub returns the bootstrap stub to prepend to images.
//
// An explicit path always wins and must exist.
// Otherwise workDir is searched for StubName, then FallbackStubName.
func LocateStub(explicit, workDir string) (string, error) {
	if explicit != "" {
		if err := checkStub(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}

	if workDir == "" {
		workDir = DefaultWorkDir
	}
	for _, name := range []string{StubName, FallbackStubName} {
		path := filepath.Join(workDir, name)
		if checkStub(path) == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no %s or %s in %q", ErrStubNotFound, StubName, FallbackStubName, workDir)
}

func checkStub(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStubNotFound, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %q is a directory", ErrStubNotFound, path)
	}
	return nil
}
