package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadKeyring(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.toml")
	err := os.WriteFile(path, []byte(`
current = 2

[[keys]]
version = 1
secret = "old-secret"

[[keys]]
version = 2
secret = "new-secret"
`), 0600)
	require.NoError(t, err)

	keys, current, err := LoadKeyring(path)
	require.NoError(t, err)
	require.Equal(t, 2, current)
	require.Equal(t, map[int]string{1: "old-secret", 2: "new-secret"}, keys)
}

func TestLoadKeyring_EmptySecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.toml")
	err := os.WriteFile(path, []byte("current = 1\n[[keys]]\nversion = 1\nsecret = \"\"\n"), 0600)
	require.NoError(t, err)

	_, _, err = LoadKeyring(path)
	require.Error(t, err)
}

func TestScheduleLocation(t *testing.T) {
	require.Equal(t, "UTC", ScheduleConfigs{}.Location().String())
	require.Equal(t, "UTC", ScheduleConfigs{Timezone: "Not/AZone"}.Location().String())
}
