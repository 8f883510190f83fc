package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"      validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"        validate:"required"`
	Engine     EngineConfig     `mapstructure:"engine"      validate:"required"`
	MediaCache MediaCacheConfig `mapstructure:"media_cache" validate:"required"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
// An empty URL selects the in-memory task store (tasks are lost on restart).
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// AuthConfig contains the control-plane authentication settings. Clients
// exchange the API key for a short-lived bearer token; only the bcrypt hash
// of the key is kept in configuration.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	APIKeyHash           string `mapstructure:"api_key_hash"           validate:"required"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// EngineConfig contains the execution engine settings.
type EngineConfig struct {
	// Channel selects how execution requests reach the page context:
	// "http" posts to a remote executor endpoint, "gemini-api" runs text
	// tasks against the Gemini API directly.
	Channel string `mapstructure:"channel" validate:"required,oneof=http gemini-api"`

	// ExecutorURL is the remote executor endpoint; required for the http
	// channel.
	ExecutorURL string `mapstructure:"executor_url" validate:"required_if=Channel http,omitempty,url"`

	// SubmitSettleMS is the fixed pause between submitting and starting to
	// watch the page's generation-in-progress indicators.
	SubmitSettleMS int `mapstructure:"submit_settle_ms" validate:"gte=0"`

	// RedirectSettleMS is the fixed pause after navigating a page to a
	// corrective URL before retrying the task.
	RedirectSettleMS int `mapstructure:"redirect_settle_ms" validate:"gte=0"`

	// DelayMinMS and DelayMaxMS bound the randomized inter-task and
	// retry delays.
	DelayMinMS int `mapstructure:"delay_min_ms" validate:"gte=0"`
	DelayMaxMS int `mapstructure:"delay_max_ms" validate:"gtefield=DelayMinMS"`

	// PollIntervalMS is the tick interval for completion polling.
	PollIntervalMS int `mapstructure:"poll_interval_ms" validate:"gt=0"`

	// CompletionTimeoutMS is the safety deadline on completion polling.
	CompletionTimeoutMS int `mapstructure:"completion_timeout_ms" validate:"gt=0"`

	// StrictCompletion controls what the completion-wait deadline means.
	// False (the historical behavior) treats an elapsed deadline as
	// completion; true reports it as a step failure.
	StrictCompletion bool `mapstructure:"strict_completion"`

	// MaxRedirectRetries caps redirect-and-retry cycles per task.
	// Zero keeps the historical unbounded behavior.
	MaxRedirectRetries int `mapstructure:"max_redirect_retries" validate:"gte=0"`

	// CDPURL is the DevTools endpoint of the browser hosting the tool page;
	// used by the agent binary that serves the http channel.
	CDPURL string `mapstructure:"cdp_url" validate:"omitempty,url"`

	// AgentPort is the listen port of the agent's execution endpoint.
	AgentPort int `mapstructure:"agent_port" validate:"required,gt=0,lt=65536"`
}

// MediaCacheConfig contains the result media cache settings.
type MediaCacheConfig struct {
	// Driver selects the blob storage backend.
	Driver string `mapstructure:"driver" validate:"required,oneof=local s3"`

	// Dir is the base directory for the local driver.
	Dir string `mapstructure:"dir" validate:"required_if=Driver local"`

	// Bucket and Region configure the s3 driver.
	Bucket string `mapstructure:"bucket" validate:"required_if=Driver s3"`
	Region string `mapstructure:"region" validate:"required_if=Driver s3"`

	// Endpoint overrides the S3 endpoint for S3-compatible stores.
	Endpoint string `mapstructure:"endpoint"`

	// AccessKey and SecretKey are optional static credentials; when empty
	// the default AWS credential chain applies.
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`

	// FetchTimeoutMS bounds each best-effort remote media fetch.
	FetchTimeoutMS int `mapstructure:"fetch_timeout_ms" validate:"gt=0"`
}

// GeminiConfig contains the Gemini API settings used by the gemini-api
// channel.
type GeminiConfig struct {
	APIKey    string `mapstructure:"api_key"`
	ModelName string `mapstructure:"model_name"`
}
