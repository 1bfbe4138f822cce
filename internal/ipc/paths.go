package ipc

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// SocketPath returns the daemon socket path and ensures its parent
// directory exists with private permissions. socket_path wins over the
// XDG runtime dir, which wins over the data dir.
func SocketPath(v *viper.Viper) (string, error) {
	p := ""
	if v != nil {
		p = strings.TrimSpace(v.GetString("socket_path"))
	}
	if p == "" {
		if xdg := os.Getenv("XDG_RUNTIME_DIR"); xdg != "" {
			p = filepath.Join(xdg, "msgbus.sock")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			p = filepath.Join(home, ".local", "share", "msgbus", "ipc.sock")
		}
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return "", err
	}
	return p, nil
}
