package config

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
// This is the single source of truth for default values and generator output.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		// Core paths and conventions
		{Key: "data_dir", Default: defaultDataDir(), Comment: "Directory for local state; the sqlite item DB lives here"},
		{Key: "socket_path", Default: "", Comment: "Unix socket of the daemon; empty uses $XDG_RUNTIME_DIR/msgbus.sock"},
		{Key: "db_url", Default: "sqlite", Comment: "Item store: sqlite (data_dir/items.db), sqlite://<path> or memory"},
		{Key: "http_addr", Default: "127.0.0.1:7466", Comment: "Health endpoint listen address; empty disables it"},

		{Key: "log.level", Default: "info", Comment: "trace, debug, info, warn, error or off"},

		{Key: "features.auto_update", Default: false, Comment: "Initial state of the auto-update feature flag"},
		{Key: "features.update_interval", Default: "1h", Comment: "How often auto-update rechecks the store for outside changes"},
		{Key: "search.default_limit", Default: 10, Comment: "Suggestions returned when a search omits limit"},
		{Key: "replace", Default: map[string]any{}, Comment: "Replacement table returned by get-config: [replace] from = \"to\""},

		{Key: "quic.enabled", Default: false, Comment: "Also serve the bus over QUIC"},
		{Key: "quic.addr", Default: ":7845", Comment: "QUIC listen address"},
		{Key: "quic.tls", Default: "self", Comment: "Certificate source: self, file or acme"},
		{Key: "quic.cert_file", Default: "", Comment: "PEM certificate for quic.tls = file"},
		{Key: "quic.key_file", Default: "", Comment: "PEM key for quic.tls = file"},
		{Key: "quic.domain", Default: "", Comment: "Domain for quic.tls = acme"},
		{Key: "quic.email", Default: "", Comment: "ACME account email"},
	}
}
