package pseudocap

import (
	"bytes"
	"crypto/sha512"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// repeatText returns size bytes of text, repeated as often as needed.
func repeatText(text string, size int) []byte {
	return bytes.Repeat([]byte(text), size/len(text)+1)[:size]
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func sha512File(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// fixture is a working directory with a 9.5 MB zeroed stub.
func fixture(t *testing.T) (dir, stub string) {
	t.Helper()
	dir = t.TempDir()
	stub = writeFile(t, dir, "cap-fixture.dat", make([]byte, 9500000))
	return dir, stub
}
