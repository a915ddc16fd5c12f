package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/geoscore/internal/model"
	"github.com/ppiankov/geoscore/internal/score"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage geoscore configuration",
	Long: `Manage geoscore configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (GEOSCORE_*, .env in the working directory)
3. Config file (~/.geoscore/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the resolved configuration after defaults, config file and environment are applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(viper.GetViper())
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
		fmt.Fprintln(out, "  Current Configuration")
		fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
		fmt.Fprintln(out)

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		fmt.Fprintln(out, string(yamlData))

		fmt.Fprintln(out, "Configuration hierarchy (highest to lowest priority):")
		fmt.Fprintln(out, "  1. CLI flags")
		fmt.Fprintln(out, "  2. Environment variables (GEOSCORE_*, OPENAI_API_KEY, ANTHROPIC_API_KEY)")
		fmt.Fprintln(out, "  3. Config file (~/.geoscore/config.yaml)")
		fmt.Fprintln(out, "  4. Defaults")
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.geoscore/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configPath := filepath.Join(home, ".geoscore", "config.yaml")
		if err := writeDefaultConfig(configPath); err != nil {
			return err
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  geoscore config show\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// loadConfig resolves the configuration: defaults, then the config file,
// then any key viper sees set through the environment or a bound flag
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := v.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyOverrides(cfg, v)

	if err := score.CheckBuckets(cfg.Scoring.Buckets); err != nil {
		return nil, fmt.Errorf("scoring.buckets: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *model.Config, v *viper.Viper) {
	overrides := map[string]func(key string){
		"scoring.buckets":         func(k string) { cfg.Scoring.Buckets = v.GetInt(k) },
		"scoring.normalize":       func(k string) { cfg.Scoring.Normalize = v.GetBool(k) },
		"scoring.max_input_chars": func(k string) { cfg.Scoring.MaxInputChars = v.GetInt(k) },
		"scoring.query":           func(k string) { cfg.Scoring.Query = v.GetString(k) },

		"http.timeout":        func(k string) { cfg.HTTP.Timeout = v.GetDuration(k) },
		"http.user_agent":     func(k string) { cfg.HTTP.UserAgent = v.GetString(k) },
		"http.max_body_bytes": func(k string) { cfg.HTTP.MaxBodyBytes = v.GetInt64(k) },
		"http.insecure_tls":   func(k string) { cfg.HTTP.InsecureTLS = v.GetBool(k) },
		"http.respect_robots": func(k string) { cfg.HTTP.RespectRobots = v.GetBool(k) },
		"http.http_proxy":     func(k string) { cfg.HTTP.HTTPProxy = v.GetString(k) },
		"http.https_proxy":    func(k string) { cfg.HTTP.HTTPSProxy = v.GetString(k) },
		"http.no_proxy":       func(k string) { cfg.HTTP.NoProxy = v.GetString(k) },

		"cache.enabled":     func(k string) { cfg.Cache.Enabled = v.GetBool(k) },
		"cache.dir":         func(k string) { cfg.Cache.Dir = v.GetString(k) },
		"cache.memory_ttl":  func(k string) { cfg.Cache.MemoryTTL = v.GetDuration(k) },
		"cache.disk_ttl":    func(k string) { cfg.Cache.DiskTTL = v.GetDuration(k) },
		"cache.max_entries": func(k string) { cfg.Cache.MaxEntries = v.GetInt(k) },

		"concurrency.workers":               func(k string) { cfg.Concurrency.Workers = v.GetInt(k) },
		"rate_limiting.requests_per_second": func(k string) { cfg.RateLimiting.RequestsPerSecond = v.GetFloat64(k) },
		"rate_limiting.burst_size":          func(k string) { cfg.RateLimiting.BurstSize = v.GetInt(k) },

		"llm.provider":    func(k string) { cfg.LLM.Provider = v.GetString(k) },
		"llm.model":       func(k string) { cfg.LLM.Model = v.GetString(k) },
		"llm.api_key":     func(k string) { cfg.LLM.APIKey = v.GetString(k) },
		"llm.base_url":    func(k string) { cfg.LLM.BaseURL = v.GetString(k) },
		"llm.timeout":     func(k string) { cfg.LLM.Timeout = v.GetInt(k) },
		"llm.max_tokens":  func(k string) { cfg.LLM.MaxTokens = v.GetInt(k) },
		"llm.temperature": func(k string) { cfg.LLM.Temperature = v.GetFloat64(k) },

		"server.host": func(k string) { cfg.Server.Host = v.GetString(k) },
		"server.port": func(k string) { cfg.Server.Port = v.GetInt(k) },

		"output.verbose":        func(k string) { cfg.Output.Verbose = v.GetBool(k) },
		"output.include_footer": func(k string) { cfg.Output.IncludeFooter = v.GetBool(k) },

		"brand.risk_keywords": func(k string) { cfg.Brand.RiskKeywords = v.GetStringSlice(k) },
	}

	for key, set := range overrides {
		if v.IsSet(key) {
			set(key)
		}
	}
	if v.GetBool("verbose") {
		cfg.Output.Verbose = true
	}
}

// writeDefaultConfig writes the commented default configuration to path,
// refusing to overwrite an existing file
func writeDefaultConfig(path string) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'geoscore config show' to view it, or delete it first to recreate", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	return renderDefaultConfig(f)
}

func renderDefaultConfig(w io.Writer) error {
	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	header := `# geoscore configuration file
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (GEOSCORE_*, e.g. GEOSCORE_SCORING_BUCKETS=10)
#   3. This config file
#   4. Built-in defaults

`
	footer := `
# API keys (recommended to use environment variables or .env instead):
#   export OPENAI_API_KEY=sk-...
#   export ANTHROPIC_API_KEY=sk-ant-...
#   export OLLAMA_BASE_URL=http://localhost:11434
`

	for _, part := range [][]byte{[]byte(header), yamlData, []byte(footer)} {
		if _, err := w.Write(part); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}
	}
	return nil
}
