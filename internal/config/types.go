package config

// DatabaseConfig describes the MySQL connection.
type DatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

// RedisConfig describes the Redis connection.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

// AIConfig lists the configured LLM providers and which provider/model serves
// each kind of call.
type AIConfig struct {
	Providers      []AIProvider     `yaml:"providers"`
	IdentityModel  *ModelAssignment `yaml:"identity_model,omitempty"`
	PrefilterModel *ModelAssignment `yaml:"prefilter_model,omitempty"`
	AgentModel     *ModelAssignment `yaml:"agent_model,omitempty"`
}

// ModelAssignment pins one kind of call to a provider and optional model
// override.
type ModelAssignment struct {
	ProviderID string `yaml:"provider_id"`
	Model      string `yaml:"model"`
}

// AIProvider is one configured LLM backend.
type AIProvider struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Type         string `yaml:"type"` // OpenAI | OpenAI-Compatible | Anthropic | OpenRouter
	APIKey       string `yaml:"api_key"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	DefaultModel string `yaml:"default_model"`
	Enabled      bool   `yaml:"enabled"`
}

// AgentsConfig tunes the orchestration pipeline.
type AgentsConfig struct {
	// ContextBudget is the size limit (in estimate units, roughly tokens)
	// under which a paper's full text is embedded into its agent's prompt.
	ContextBudget int `yaml:"context_budget"`
	// DefaultVerbosity applies when a request does not specify one.
	DefaultVerbosity string `yaml:"default_verbosity"` // brief | normal
	// StreamTimeoutSeconds bounds each agent's streamed LLM call.
	StreamTimeoutSeconds int `yaml:"stream_timeout_seconds"`
	// DefaultAngle fills the angle of legacy prefilter responses that name
	// engaging papers without explaining how they engage.
	DefaultAngle string `yaml:"default_angle"`
}

// DefaultAgentsConfig returns the agent pipeline defaults.
func DefaultAgentsConfig() AgentsConfig {
	return AgentsConfig{
		ContextBudget:        500000,
		DefaultVerbosity:     "normal",
		StreamTimeoutSeconds: 60,
		DefaultAngle:         "has relevant perspective",
	}
}

// ShareExportConfig configures the S3-backed workspace share exporter.
type ShareExportConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	PathStyleAccess bool   `yaml:"path_style_access"`
	CustomDomain    string `yaml:"custom_domain,omitempty"`
}

// Configured reports whether the exporter has the credentials it needs.
func (s ShareExportConfig) Configured() bool {
	return s.Enabled && s.Bucket != "" && s.Region != "" && s.AccessKeyID != "" && s.SecretAccessKey != ""
}
