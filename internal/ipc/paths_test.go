package ipc

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketPathPrecedence(t *testing.T) {
	run := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", run)

	p, err := SocketPath(viper.New())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(run, "msgbus.sock"), p)

	v := viper.New()
	explicit := filepath.Join(t.TempDir(), "nested", "bus.sock")
	v.Set("socket_path", explicit)
	p, err = SocketPath(v)
	require.NoError(t, err)
	assert.Equal(t, explicit, p)
	assert.DirExists(t, filepath.Dir(explicit))
}
