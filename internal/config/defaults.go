package config

const (
	defaultLogDir                 = "~/.local/share/framebridge/logs"
	defaultSocketName             = "framebridge.sock"
	defaultBind                   = "127.0.0.1:8080"
	defaultHost                   = "localhost"
	defaultWSPath                 = "/framebridge_ws/"
	defaultBrokerPollIntervalMS   = 10
	defaultOutboxTickMS           = 5
	defaultShutdownTimeoutSeconds = 2
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Server: Server{
			Bind:   defaultBind,
			Host:   defaultHost,
			WSPath: defaultWSPath,
		},
		Bridge: Bridge{
			BrokerPollIntervalMS:   defaultBrokerPollIntervalMS,
			OutboxTickMS:           defaultOutboxTickMS,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
