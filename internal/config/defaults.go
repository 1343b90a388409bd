package config

const (
	defaultConfigPath     = "~/.config/warden/config.toml"
	defaultDataDir        = "~/.local/share/warden"
	defaultLogDir         = "~/.local/share/warden/logs"
	defaultUpdateURL      = "https://depot.example.com"
	defaultUpdateChannel  = "stable"
	defaultUpdatePackage  = "core/wardend"
	defaultUpdatePeriod   = 60
	defaultHelperTimeout  = 5
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultAPIBind        = "127.0.0.1:7486"
	defaultNotifyTimeout  = 10
	defaultHelperReplyDir = "~/.local/share/warden/run"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Update: Update{
			URL:           defaultUpdateURL,
			Channel:       defaultUpdateChannel,
			Package:       defaultUpdatePackage,
			PeriodSeconds: defaultUpdatePeriod,
		},
		Helper: Helper{
			ReplyDir:              defaultHelperReplyDir,
			CommandTimeoutSeconds: defaultHelperTimeout,
		},
		APIBind: defaultAPIBind,
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
	}
}
