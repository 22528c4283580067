package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/capforge/autoloader/pseudocap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestImageName(t *testing.T) {
	assert.Equal(t, "autoloader.exe", imageName("autoloader"))
	assert.Equal(t, "autoloader.bin", imageName("autoloader.bin"))
	assert.Equal(t, "out/autoloader.exe", imageName("out/autoloader"))
}

func TestEstimateSize(t *testing.T) {
	dir := t.TempDir()
	stub := writeFile(t, dir, "stub.dat", make([]byte, 1000))
	a := writeFile(t, dir, "a.signed", make([]byte, 10))
	b := writeFile(t, dir, "b.signed", make([]byte, 20))

	total, err := estimateSize(pseudocap.Request{
		Files:   []string{a, "", b},
		WorkDir: dir,
		Stub:    stub,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1000+10+20+176, total)

	_, err = estimateSize(pseudocap.Request{WorkDir: dir, Stub: stub})
	assert.ErrorIs(t, err, pseudocap.ErrFileCount)

	_, err = estimateSize(pseudocap.Request{
		Files:   []string{filepath.Join(dir, "*.signed")},
		WorkDir: dir,
		Stub:    stub,
	})
	assert.ErrorIs(t, err, pseudocap.ErrAmbiguousMatch)
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	stubData := bytes.Repeat([]byte{0xCC}, 5000)
	first := bytes.Repeat([]byte("desktop "), 1000)
	second := bytes.Repeat([]byte("radio "), 700)

	stub := writeFile(t, dir, "stub.dat", stubData)
	a := writeFile(t, dir, "desktop.signed", first)
	b := writeFile(t, dir, "radio.signed", second)

	report, err := pseudocap.MakeAutoloader(pseudocap.Request{
		Filename: "autoloader.exe",
		Files:    []string{a, b},
		WorkDir:  dir,
		Stub:     stub,
	})
	require.NoError(t, err)
	require.NoError(t, report.Err())

	out := filepath.Join(dir, "extracted")
	extractStub = true
	t.Cleanup(func() { extractStub = false })
	require.NoError(t, runExtract(extractCmd, []string{report.Output, out}))

	data, err := os.ReadFile(filepath.Join(out, "cap.dat"))
	require.NoError(t, err)
	assert.Equal(t, stubData, data)

	data, err = os.ReadFile(filepath.Join(out, slotName(1)))
	require.NoError(t, err)
	assert.Equal(t, first, data)

	data, err = os.ReadFile(filepath.Join(out, slotName(2)))
	require.NoError(t, err)
	assert.Equal(t, second, data)

	assert.NoFileExists(t, filepath.Join(out, slotName(3)))
}

func TestExtractRejectsPlainFile(t *testing.T) {
	dir := t.TempDir()
	plain := writeFile(t, dir, "plain.exe", bytes.Repeat([]byte{1}, 1024))
	assert.Error(t, runExtract(extractCmd, []string{plain, filepath.Join(dir, "out")}))
}
