package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	AppDirName     = "termichan"
	ConfigFileName = "config.toml"
)

// ConfirmationMode controls when a generated command requires user
// confirmation before it is executed.
type ConfirmationMode string

const (
	// ConfirmAlways requires confirmation for every generated command.
	ConfirmAlways ConfirmationMode = "always"
	// ConfirmNever executes generated commands without confirmation.
	ConfirmNever ConfirmationMode = "never"
	// ConfirmDangerous requires confirmation only for commands matching
	// one of the configured dangerous prefixes.
	ConfirmDangerous ConfirmationMode = "dangerous"
)

// OutputFormat controls how generated commands and explanations are rendered.
type OutputFormat string

const (
	FormatPlain    OutputFormat = "plain"
	FormatMarkdown OutputFormat = "markdown"
	FormatRich     OutputFormat = "rich"
)

// Config is the application configuration. It is loaded once at startup and
// treated as read-only afterwards, so it is safe to share across concurrent
// pipeline invocations.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Security SecurityConfig `mapstructure:"security"`
	History  HistoryConfig  `mapstructure:"history"`
	Prompt   PromptConfig   `mapstructure:"prompt"`
	UI       UIConfig       `mapstructure:"ui"`
	Network  NetworkConfig  `mapstructure:"network"`
}

// LLMConfig holds provider and sampling parameters for the model backend.
type LLMConfig struct {
	// Provider selects the backend implementation ("openai", or any
	// OpenAI-compatible endpoint via "custom"/"ollama" with a base_url).
	Provider string `mapstructure:"provider"`

	// APIKey authenticates against the provider. Leave empty to fall back
	// to the OPENAI_API_KEY environment variable.
	APIKey string `mapstructure:"api_key"`

	// BaseURL overrides the provider's default API endpoint. Useful for
	// OpenAI-compatible servers and proxies.
	BaseURL string `mapstructure:"base_url"`

	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`

	// TopP is the nucleus sampling threshold. Unset means the provider
	// default; by convention only one of temperature/top_p is tuned.
	TopP *float32 `mapstructure:"top_p"`

	// MaxTokens caps the response length. Unset means the provider default.
	MaxTokens *int `mapstructure:"max_tokens"`

	// TimeoutSecs bounds each API request.
	TimeoutSecs int `mapstructure:"timeout_secs"`
}

// SecurityConfig controls the confirmation gate applied to generated commands.
type SecurityConfig struct {
	ConfirmationMode ConfirmationMode `mapstructure:"confirmation_mode"`

	// DangerousCommands are command prefixes that force confirmation when
	// ConfirmationMode is "dangerous". Matching is case-sensitive.
	DangerousCommands []string `mapstructure:"dangerous_commands"`
}

// HistoryConfig controls persistence of generated commands.
type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	FilePath   string `mapstructure:"file_path"`
	MaxEntries int    `mapstructure:"max_entries"`
}

// PromptConfig holds the templates sent to the model. The system prompt may
// reference {os}, {shell} and {pwd}; the user template may reference
// {user_input}.
type PromptConfig struct {
	SystemPrompt       string `mapstructure:"system_prompt"`
	UserPromptTemplate string `mapstructure:"user_prompt_template"`
}

// UIConfig controls output rendering.
type UIConfig struct {
	OutputFormat       OutputFormat `mapstructure:"output_format"`
	ShowExplanation    bool         `mapstructure:"show_explanation"`
	CompactMode        bool         `mapstructure:"compact_mode"`
	SyntaxHighlighting bool         `mapstructure:"syntax_highlighting"`
}

// NetworkConfig controls how the HTTP client reaches the provider.
type NetworkConfig struct {
	// Proxy is a proxy URL such as "socks5://localhost:1080" or
	// "http://proxy.example.com:8080". Empty means direct connection
	// (system proxy environment variables still apply).
	Proxy string `mapstructure:"proxy"`

	// TrustInvalidCerts disables TLS certificate verification. Only for
	// controlled environments with self-signed certificates.
	TrustInvalidCerts bool `mapstructure:"trust_invalid_certs"`
}

const defaultSystemPrompt = `You are termichan, an expert AI assistant specialized in generating accurate and safe terminal commands based on user requests.
Your goal is to provide a single, executable command line that achieves the user's goal.

Current Environment:
- Operating System: {os}
- Shell: {shell}
- Working Directory: {pwd}

Guidelines:
1.  **Clarity:** Provide only the command itself, without any introductory phrases like "Here's the command:" or "You can use:".
2.  **Safety:** Prioritize safety. Avoid destructive commands unless explicitly requested and clearly necessary. If a potentially dangerous command is needed, add a brief comment ` + "`# Be careful: <reason>`" + ` after the command.
3.  **Conciseness:** Generate the most concise command that fulfills the request.
4.  **Placeholders:** If specific information is missing (e.g., filename, hostname), use clear placeholders like ` + "`<filename>`" + ` or ` + "`<hostname>`" + ` and indicate that the user needs to replace them.
5.  **Explanation (Optional):** If the command is complex or non-obvious, you MAY add a short explanation starting with ` + "`# Explanation:`" + ` on a new line after the command. Keep it brief.
6.  **No Markdown:** Do not use markdown formatting (like ` + "```bash ... ```" + `). Output only the raw command and optional comments/explanations.

Example Request: Find all files modified in the last 2 days
Example Response:
find . -type f -mtime -2

Example Request: Delete the logs folder
Example Response:
rm -rf ./logs # Be careful: This will permanently delete the folder and its contents.

Example Request: Show disk usage for the current directory
Example Response:
du -sh .
# Explanation: du calculates disk usage, -s summarizes, -h makes it human-readable.

Respond only with the command and any necessary comments/explanations according to these guidelines.`

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	maxTokens := 1500
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxTokens:   &maxTokens,
			TimeoutSecs: 60,
		},
		Security: SecurityConfig{
			ConfirmationMode: ConfirmAlways,
			DangerousCommands: []string{
				"rm ",
				"sudo ",
				"mv ",
				"dd ",
				"mkfs",
				"shutdown ",
				"reboot",
				":(){:|:&};:",
				"> /dev/sda",
				"chmod -R 000",
				"chown -R nobody",
			},
		},
		History: HistoryConfig{
			Enabled:    true,
			FilePath:   defaultHistoryPath(),
			MaxEntries: 1000,
		},
		Prompt: PromptConfig{
			SystemPrompt:       defaultSystemPrompt,
			UserPromptTemplate: "{user_input}",
		},
		UI: UIConfig{
			OutputFormat:       FormatRich,
			ShowExplanation:    true,
			CompactMode:        false,
			SyntaxHighlighting: true,
		},
		Network: NetworkConfig{},
	}
}

// GetConfigDir returns the directory holding the config file,
// e.g. ~/.config/termichan on Linux.
func GetConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, AppDirName), nil
}

// GetConfigPath returns the default config file path.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func defaultHistoryPath() string {
	dir, err := GetConfigDir()
	if err != nil {
		return "termichan_history.json"
	}
	return filepath.Join(dir, "history.json")
}

// Load reads the configuration from path, creating the file with defaults if
// it does not exist. An empty path uses the default location. When the file
// carries no API key, the OPENAI_API_KEY environment variable is used as a
// fallback.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// First run: materialize the defaults so the user has a file to edit.
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Security.ConfirmationMode = ConfirmationMode(strings.ToLower(string(cfg.Security.ConfirmationMode)))
	cfg.UI.OutputFormat = OutputFormat(strings.ToLower(string(cfg.UI.OutputFormat)))

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers the default value table so that a partial config file
// is filled in field by field.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", *d.LLM.MaxTokens)
	v.SetDefault("llm.timeout_secs", d.LLM.TimeoutSecs)
	// api_key, base_url and top_p have no defaults: absent means unset.

	v.SetDefault("security.confirmation_mode", string(d.Security.ConfirmationMode))
	v.SetDefault("security.dangerous_commands", d.Security.DangerousCommands)

	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.file_path", d.History.FilePath)
	v.SetDefault("history.max_entries", d.History.MaxEntries)

	v.SetDefault("prompt.system_prompt", d.Prompt.SystemPrompt)
	v.SetDefault("prompt.user_prompt_template", d.Prompt.UserPromptTemplate)

	v.SetDefault("ui.output_format", string(d.UI.OutputFormat))
	v.SetDefault("ui.show_explanation", d.UI.ShowExplanation)
	v.SetDefault("ui.compact_mode", d.UI.CompactMode)
	v.SetDefault("ui.syntax_highlighting", d.UI.SyntaxHighlighting)

	v.SetDefault("network.proxy", d.Network.Proxy)
	v.SetDefault("network.trust_invalid_certs", d.Network.TrustInvalidCerts)
}

// Validate checks the invariants the rest of the application relies on.
func (c *Config) Validate() error {
	if c.LLM.TimeoutSecs <= 0 {
		return fmt.Errorf("llm.timeout_secs must be positive, got %d", c.LLM.TimeoutSecs)
	}
	if c.LLM.MaxTokens != nil && *c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive when set, got %d", *c.LLM.MaxTokens)
	}

	switch c.Security.ConfirmationMode {
	case ConfirmAlways, ConfirmNever, ConfirmDangerous:
	default:
		return fmt.Errorf("security.confirmation_mode must be one of always/never/dangerous, got %q", c.Security.ConfirmationMode)
	}

	switch c.UI.OutputFormat {
	case FormatPlain, FormatMarkdown, FormatRich:
	default:
		return fmt.Errorf("ui.output_format must be one of plain/markdown/rich, got %q", c.UI.OutputFormat)
	}

	return nil
}
