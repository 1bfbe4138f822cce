package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
// This centralizes default values and descriptions in one place.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load resolves configuration with precedence: defaults < file < env.
// The provided Viper instance is mutated with defaults, file contents, and env.
func Load(ctx context.Context, v *viper.Viper) error {
	// Configure Viper search paths. If SetConfigFile was provided upstream,
	// it takes precedence; these paths are harmless fallbacks.
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "msgbus"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "msgbus"))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	// Missing file is fine; a broken one is not.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && v.ConfigFileUsed() != "" {
			return err
		}
	}

	// Environment variables: MSGBUS_* (highest among these sources)
	v.SetEnvPrefix("msgbus")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if v.GetString("data_dir") == "" {
		v.Set("data_dir", defaultDataDir())
	}
	return CheckConfigValidity(v)
}

// defaultDataDir resolves default data dir: $XDG_DATA_HOME/msgbus or ~/.local/share/msgbus
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "msgbus")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "msgbus")
}

// DefaultConfigPath resolves the standard config.toml location.
func DefaultConfigPath() string {
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		home, _ := os.UserHomeDir()
		xdg = filepath.Join(home, ".config")
	}
	return filepath.Join(xdg, "msgbus", "config.toml")
}

// ResolveDBURL maps db_url onto a URL db.Open understands.
func ResolveDBURL(v *viper.Viper) string {
	u := strings.TrimSpace(v.GetString("db_url"))
	if u != "" && u != "sqlite" {
		return u
	}
	return "sqlite://" + filepath.Join(expandHome(v.GetString("data_dir")), "items.db")
}

// Replacements returns the [replace] table as strings.
func Replacements(v *viper.Viper) map[string]string {
	out := map[string]string{}
	for k, val := range v.GetStringMapString("replace") {
		out[k] = val
	}
	return out
}

func expandHome(dir string) string {
	if strings.HasPrefix(dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, dir[1:])
		}
	}
	return dir
}
