package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

var (
	cfgFile     string
	verbose     bool
	llmProvider string
	llmModel    string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "geoscore",
	Short: "geoscore - citation impression scoring for generative answers",
	Long: `geoscore measures how visible each cited source is inside a generated
answer. It splits the answer into paragraphs and sentences, attributes every
sentence to the citation markers it carries ([1], [2], ...) and reports
per-citation impression vectors alongside whole-document authority,
source-ability and uniqueness scores.

Scores describe text structure only. They say nothing about whether a
source is correct.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "geoscore v%s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.geoscore/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, venice, anthropic, ollama)")
	rootCmd.PersistentFlags().StringVar(&llmModel, "llm-model", "", "LLM model name")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("llm-provider"))
	_ = viper.BindPFlag("llm.model", rootCmd.PersistentFlags().Lookup("llm-model"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads the .env file, the config file and GEOSCORE_* variables
func initConfig() {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".geoscore"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// GEOSCORE_SCORING_BUCKETS overrides scoring.buckets
	viper.SetEnvPrefix("GEOSCORE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case errors.As(err, &notFound):
	case err != nil:
		fmt.Fprintf(os.Stderr, "Warning: ignoring config file: %v\n", err)
	case verbose:
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
