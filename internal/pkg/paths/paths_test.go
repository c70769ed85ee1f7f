package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConfig(t *testing.T) {
	assert.Equal(t, "custom.yaml", FindConfig("custom.yaml"))

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Chdir(dir)

	assert.Empty(t, FindConfig(""))

	userFile := filepath.Join(GetDataDir(), ConfigFileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(userFile), 0o755))
	require.NoError(t, os.WriteFile(userFile, []byte("llm: {}\n"), 0o644))
	assert.Equal(t, userFile, FindConfig(""))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("llm: {}\n"), 0o644))
	assert.Equal(t, ConfigFileName, FindConfig(""))
}
