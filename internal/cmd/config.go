package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/gemora/internal/errors"
	"github.com/felixgeelhaar/gemora/internal/log"
	"github.com/felixgeelhaar/gemora/internal/session"
	"github.com/felixgeelhaar/gemora/internal/ux"
)

const (
	defaultAPIURL = "http://localhost:8080/api"

	envAPIURL     = "GEMORA_API_URL"
	envPassphrase = "GEMORA_PASSPHRASE"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit Gemora configuration",
	Long: `Manage Gemora configuration stored at ~/.gemora/config.yaml

Configuration includes:
  • Backend URL and request timeout
  • Session storage backend
  • Default output format
  • Logging, tracing and metrics settings

Environment overrides:
  GEMORA_HOME        home directory (default ~/.gemora)
  GEMORA_API_URL     backend base URL
  GEMORA_PASSPHRASE  passphrase for the encrypted storage backend

Examples:
  # View current configuration
  gemora config view

  # Edit configuration in $EDITOR
  gemora config edit

  # Get a specific value
  gemora config get api.base_url

  # Set a specific value
  gemora config set storage.backend sqlite

  # Show configuration file path
  gemora config path
`,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display current configuration",
	Long:  `Display the current Gemora configuration in the specified format.`,
	RunE:  runConfigView,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration in $EDITOR",
	Long:  `Open the configuration file in your default editor (from $EDITOR environment variable).`,
	RunE:  runConfigEdit,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  `Retrieve the value of a specific configuration key using dot notation (e.g., api.base_url).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a specific configuration value",
	Long:  `Set the value of a specific configuration key using dot notation (e.g., storage.backend sqlite).`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configGetCmd)
	// Values such as -1 are positional, not shorthand flags.
	configSetCmd.Flags().SetInterspersed(false)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	rootCmd.AddCommand(configCmd)
}

// GemoraConfig represents the Gemora configuration file
type GemoraConfig struct {
	API       APIConfig       `yaml:"api" json:"api"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Defaults  CommandDefaults `yaml:"defaults" json:"defaults"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
}

type APIConfig struct {
	BaseURL        string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
}

type StorageConfig struct {
	Backend string `yaml:"backend,omitempty" json:"backend,omitempty"` // "file", "encrypted", "sqlite", "memory"
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`       // Default under the home directory
}

type CommandDefaults struct {
	Format  string `yaml:"format,omitempty" json:"format,omitempty"` // "text", "json", "yaml"
	NoColor bool   `yaml:"no_color,omitempty" json:"no_color,omitempty"`
}

type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" json:"level,omitempty"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format,omitempty" json:"format,omitempty"` // "text", "json"
}

type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// homeDir resolves the Gemora home directory, preferring the --home flag.
func homeDir(flag string) string {
	if flag != "" {
		return flag
	}
	return ux.NewPathDefaults().HomeDir
}

// configPath returns the path to the configuration file
func configPath(home string) string {
	return (&ux.PathDefaults{HomeDir: homeDir(home)}).ConfigFile()
}

// loadConfig loads the configuration, creating the default if it doesn't exist
func loadConfig(path string) (*GemoraConfig, error) {
	// Create default config if it doesn't exist
	if _, err := os.Stat(path); os.IsNotExist(err) {
		defaultConfig := defaultGemoraConfig()
		if err := saveConfig(defaultConfig, path); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return defaultConfig, nil
	}

	// Load existing config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	config := defaultGemoraConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.NewConfigInvalidError(path, err)
	}

	return config, nil
}

// saveConfig saves the configuration to the file
func saveConfig(config *GemoraConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// defaultGemoraConfig returns the default configuration
func defaultGemoraConfig() *GemoraConfig {
	return &GemoraConfig{
		API: APIConfig{
			BaseURL:        defaultAPIURL,
			TimeoutSeconds: 15,
		},
		Storage: StorageConfig{
			Backend: session.BackendFile,
		},
		Defaults: CommandDefaults{
			Format:  "text",
			NoColor: false,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Enabled: false,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Settings are the effective connection and storage settings after applying
// config file, environment and flags, in that order.
type Settings struct {
	BaseURL        string
	Timeout        time.Duration
	StorageBackend string
	StoragePath    string
	Passphrase     string
	Home           string
	Format         string
	NoColor        bool
}

func resolveSettings(cfg *GemoraConfig, cc *CommandContext) Settings {
	s := Settings{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        time.Duration(cfg.API.TimeoutSeconds) * time.Second,
		StorageBackend: cfg.Storage.Backend,
		StoragePath:    cfg.Storage.Path,
		Passphrase:     os.Getenv(envPassphrase),
		Home:           homeDir(cc.Home),
		Format:         cfg.Defaults.Format,
		NoColor:        cfg.Defaults.NoColor,
	}

	if v := os.Getenv(envAPIURL); v != "" {
		s.BaseURL = v
	}
	if cc.APIURL != "" {
		s.BaseURL = cc.APIURL
	}
	if cc.Timeout > 0 {
		s.Timeout = cc.Timeout
	}
	if cc.Storage != "" {
		s.StorageBackend = cc.Storage
	}
	if cc.Format != "" {
		s.Format = cc.Format
	}
	if cc.NoColor {
		s.NoColor = true
	}
	if s.StorageBackend == "" {
		s.StorageBackend = session.BackendFile
	}
	if s.StoragePath == "" {
		s.StoragePath = (&ux.PathDefaults{HomeDir: s.Home}).SessionPath(s.StorageBackend)
	}
	return s
}

func runConfigView(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	path := configPath(cmdCtx.Home)
	config, err := loadConfig(path)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	// Use formatter for JSON/YAML output
	if cmdCtx.Format == "json" || cmdCtx.Format == "yaml" {
		formatter, err := ux.NewFormatter(cmdCtx.Format, &ux.FormatterOptions{
			Writer:  cmd.OutOrStdout(),
			NoColor: cmdCtx.NoColor,
		})
		if err != nil {
			return err
		}
		return formatter.Format(config)
	}

	// Text output
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration file: %s\n\n", path)

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, string(data))
	return nil
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString("home")
	path := configPath(home)

	// Ensure config exists
	if _, err := loadConfig(path); err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	// Get editor from environment
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi" // Fallback to vi
	}

	// Open editor
	editorCmd := exec.CommandContext(cmd.Context(), editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	// Validate the edited config
	if _, err := loadConfig(path); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Configuration may contain errors: %v\n", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "Please check and fix the configuration file.\n")
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration updated successfully")
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	home, _ := cmd.Flags().GetString("home")

	config, err := loadConfig(configPath(home))
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	value, err := getNestedValue(config, key)
	if err != nil {
		return fmt.Errorf("failed to get value: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]
	home, _ := cmd.Flags().GetString("home")
	path := configPath(home)

	config, err := loadConfig(path)
	if err != nil {
		return ux.FormatError(err, "loading configuration")
	}

	if err := setNestedValue(config, key, value); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}

	if err := saveConfig(config, path); err != nil {
		return ux.FormatError(err, "saving configuration")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s = %s\n", key, value)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString("home")
	fmt.Fprintln(cmd.OutOrStdout(), configPath(home))
	return nil
}

// getNestedValue retrieves a value from the config using dot notation
func getNestedValue(config *GemoraConfig, key string) (string, error) {
	switch key {
	case "api.base_url":
		return config.API.BaseURL, nil
	case "api.timeout_seconds":
		return strconv.Itoa(config.API.TimeoutSeconds), nil
	case "storage.backend":
		return config.Storage.Backend, nil
	case "storage.path":
		return config.Storage.Path, nil
	case "defaults.format":
		return config.Defaults.Format, nil
	case "defaults.no_color":
		return strconv.FormatBool(config.Defaults.NoColor), nil
	case "logging.level":
		return config.Logging.Level, nil
	case "logging.format":
		return config.Logging.Format, nil
	case "telemetry.enabled":
		return strconv.FormatBool(config.Telemetry.Enabled), nil
	case "telemetry.endpoint":
		return config.Telemetry.Endpoint, nil
	case "metrics.enabled":
		return strconv.FormatBool(config.Metrics.Enabled), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setNestedValue sets a value in the config using dot notation
func setNestedValue(config *GemoraConfig, key, value string) error {
	switch key {
	case "api.base_url":
		config.API.BaseURL = strings.TrimRight(value, "/")
	case "api.timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return errors.NewConfigInvalidError(key, fmt.Errorf("must be a positive integer, got %q", value))
		}
		config.API.TimeoutSeconds = n
	case "storage.backend":
		if !isBackend(value) {
			return errors.NewConfigInvalidError(key, fmt.Errorf("must be one of %s", strings.Join(session.Backends(), ", ")))
		}
		config.Storage.Backend = value
	case "storage.path":
		config.Storage.Path = value
	case "defaults.format":
		format, err := ux.ParseFormat(value)
		if err != nil {
			return errors.NewConfigInvalidError(key, err)
		}
		config.Defaults.Format = string(format)
	case "defaults.no_color":
		config.Defaults.NoColor = parseBool(value)
	case "logging.level":
		if _, ok := log.LookupLevel(value); !ok {
			return errors.NewConfigInvalidError(key, fmt.Errorf("must be one of %s", strings.Join(log.Levels(), ", ")))
		}
		config.Logging.Level = strings.ToLower(value)
	case "logging.format":
		if value != "text" && value != "json" {
			return errors.NewConfigInvalidError(key, fmt.Errorf("must be text or json"))
		}
		config.Logging.Format = value
	case "telemetry.enabled":
		config.Telemetry.Enabled = parseBool(value)
	case "telemetry.endpoint":
		config.Telemetry.Endpoint = value
	case "metrics.enabled":
		config.Metrics.Enabled = parseBool(value)
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func isBackend(name string) bool {
	for _, b := range session.Backends() {
		if b == name {
			return true
		}
	}
	return false
}

// parseBool parses a boolean string value
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "yes" || s == "1" || s == "on"
}
