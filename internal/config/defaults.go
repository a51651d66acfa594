package config

const (
	defaultDataDir                 = "~/.local/share/murmur"
	defaultLogDir                  = "~/.local/share/murmur/logs"
	defaultAPIBind                 = "127.0.0.1:7490"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultIdlePollSeconds         = 5
	defaultRetryDelaySeconds       = 5
	defaultMaxRetries              = 3
	defaultErrorRetrySeconds       = 10
	defaultTranscriptionBaseURL    = "http://127.0.0.1:8002/v1"
	defaultTranscriptionModel      = "base"
	defaultTranscriptionTimeout    = 600
	defaultNotifyRequestTimeout    = 10
	transcriptionAPIKeyEnv         = "MURMUR_TRANSCRIPTION_API_KEY"
	transcriptionAPIKeyFallbackEnv = "OPENAI_API_KEY"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Workflow: Workflow{
			IdlePollSeconds:     defaultIdlePollSeconds,
			RetryDelaySeconds:   defaultRetryDelaySeconds,
			MaxRetries:          defaultMaxRetries,
			ErrorRetrySeconds:   defaultErrorRetrySeconds,
			ScanIntervalSeconds: 0,
		},
		Scanner: Scanner{
			IncludeVideo:      false,
			FollowFileSymlink: true,
		},
		Transcription: Transcription{
			BaseURL:          defaultTranscriptionBaseURL,
			Model:            defaultTranscriptionModel,
			TimeoutSeconds:   defaultTranscriptionTimeout,
			WriteTranscripts: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			JobCompleted:   true,
			JobFailed:      true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
