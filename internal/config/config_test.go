package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, cwd, cfg.WorkDir)
	assert.Empty(t, cfg.StubPath)
	assert.Equal(t, ".capcreator/history.db", cfg.HistoryPath)
	assert.Equal(t, []string{"sha512", "sha256", "md5"}, cfg.HashAlgorithms)
	assert.Equal(t, "ed25519", cfg.SigningScheme)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFrom_environment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CAPCREATOR_STUB_PATH", "/opt/cap/cap-3.11.0.18.dat")
	t.Setenv("CAPCREATOR_HASH_ALGORITHMS", "sha1,cid")

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "/opt/cap/cap-3.11.0.18.dat", cfg.StubPath)
	assert.Equal(t, []string{"sha1", "cid"}, cfg.HashAlgorithms)
}

func TestLoadFrom_configFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "capcreator.yaml"), []byte(
		"work-dir: /srv/builds\nsigning-scheme: dilithium3\ns3-bucket: mirror\n"), 0o644))

	cfg, err := LoadFrom(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "/srv/builds", cfg.WorkDir)
	assert.Equal(t, "dilithium3", cfg.SigningScheme)
	assert.Equal(t, "mirror", cfg.S3Bucket)
}

func TestValidate(t *testing.T) {
	valid := Config{WorkDir: ".", HistoryPath: "h.db", HashAlgorithms: []string{"sha512"}, SigningScheme: "ed25519"}
	assert.NoError(t, valid.Validate())

	cfg := valid
	cfg.WorkDir = ""
	assert.EqualError(t, cfg.Validate(), "work-dir cannot be empty")

	cfg = valid
	cfg.HistoryPath = ""
	assert.EqualError(t, cfg.Validate(), "history-path cannot be empty")

	cfg = valid
	cfg.HashAlgorithms = []string{"whirlpool"}
	assert.EqualError(t, cfg.Validate(), `unknown hash algorithm "whirlpool"`)

	cfg = valid
	cfg.SigningScheme = "rsa"
	assert.EqualError(t, cfg.Validate(), `unknown signing scheme "rsa"`)
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
