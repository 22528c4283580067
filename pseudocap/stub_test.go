package pseudocap

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocateStub(t *testing.T) {
	dir := t.TempDir()

	_, err := LocateStub("", dir)
	assert.True(t, errors.Is(err, ErrStubNotFound))

	fallback := writeFile(t, dir, FallbackStubName, []byte("cap"))
	path, err := LocateStub("", dir)
	assert.NoError(t, err)
	assert.Equal(t, fallback, path)

	versioned := writeFile(t, dir, StubName, []byte("cap"))
	path, err = LocateStub("", dir)
	assert.NoError(t, err)
	assert.Equal(t, versioned, path)

	explicit := writeFile(t, t.TempDir(), "custom.exe", []byte("cap"))
	path, err = LocateStub(explicit, dir)
	assert.NoError(t, err)
	assert.Equal(t, explicit, path)
}

func TestLocateStub_explicitMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, StubName, []byte("cap"))

	// an explicit stub is never replaced by a local one
	_, err := LocateStub(filepath.Join(dir, "missing.exe"), dir)
	assert.True(t, errors.Is(err, ErrStubNotFound))

	_, err = LocateStub(dir, dir)
	assert.True(t, errors.Is(err, ErrStubNotFound))
}

func TestStubName(t *testing.T) {
	assert.Equal(t, "cap-3.11.0.18.dat", StubName)
}
