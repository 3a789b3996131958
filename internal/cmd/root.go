// Package cmd provides the command-line interface for DropURL.
// It handles command parsing, configuration loading and wiring of the
// engine with its collaborators.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dropurl/dropurl/internal/config"
	"github.com/dropurl/dropurl/internal/logging"
)

const envPrefix = "DROPURL"

var (
	cfgFile   string
	version   string
	buildTime string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dropurl",
	Short: "Audit URLs for broken links, duplicate content and SEO issues",
	Long: `DropURL audits web pages for broken links and assets, duplicate
embedded content and basic SEO metadata. It can check a list of URLs,
crawl a site from a seed URL, and serve the same checks over HTTP.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		showConfig, _ := cmd.Flags().GetBool("show-config")
		if showConfig {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return showCurrentConfig(cmd.OutOrStdout(), cfg)
		}
		return cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets version information for the CLI
func SetVersionInfo(v, bt string) {
	version = v
	buildTime = bt
	rootCmd.Version = fmt.Sprintf("%s (built %s)", version, buildTime)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dropurl.yml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this file, rotated by size")
	rootCmd.PersistentFlags().DurationP("timeout", "t", 10*time.Second, "Per-request timeout in batch mode")
	rootCmd.PersistentFlags().StringP("user-agent", "u", "DropURL/1.0", "HTTP User-Agent header")
	rootCmd.PersistentFlags().StringSliceP("header", "H", []string{}, "Custom HTTP headers in 'Name: Value' format (use multiple times for multiple headers)")
	rootCmd.PersistentFlags().String("storage", "sqlite", "Storage driver: sqlite, postgres or none")
	rootCmd.PersistentFlags().StringP("database", "d", "./dropurl.db", "SQLite file path or PostgreSQL connection string")

	rootCmd.Flags().Bool("show-config", false, "Display current configuration in YAML format and exit")

	rootCmd.AddCommand(checkCmd, crawlCmd, serveCmd, historyCmd)
}

// bindFlags connects flags to configuration keys. It runs on every
// initialization so a reset viper picks the bindings up again.
func bindFlags() {
	bindPersistent(rootCmd, []flagBinding{
		{"log.level", "log-level"},
		{"log.file", "log-file"},
		{"fetch.timeout", "timeout"},
		{"fetch.user_agent", "user-agent"},
		{"fetch.headers", "header"},
		{"storage.driver", "storage"},
		{"storage.dsn", "database"},
	})
	bindLocal(checkCmd, []flagBinding{
		{"batch.chunk_size", "chunk-size"},
	})
	bindLocal(crawlCmd, []flagBinding{
		{"crawl.max_nodes", "max-nodes"},
	})
	bindLocal(serveCmd, []flagBinding{
		{"server.addr", "addr"},
	})
}

type flagBinding struct {
	viperKey string
	flagName string
}

func bindPersistent(cmd *cobra.Command, binds []flagBinding) {
	for _, b := range binds {
		if err := viper.BindPFlag(b.viperKey, cmd.PersistentFlags().Lookup(b.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", b.flagName, err)
		}
	}
}

func bindLocal(cmd *cobra.Command, binds []flagBinding) {
	for _, b := range binds {
		if err := viper.BindPFlag(b.viperKey, cmd.Flags().Lookup(b.flagName)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind flag %s: %v\n", b.flagName, err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("dropurl")
	}

	bindFlags()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := registerDefaults(config.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to register defaults: %v\n", err)
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every configuration key known to viper so that
// environment variables can override keys that have no flag
func registerDefaults(cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	for key, value := range flattenKeys("", tree) {
		viper.SetDefault(key, value)
	}
	return nil
}

func flattenKeys(prefix string, tree map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range flattenKeys(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// loadConfig merges defaults, file, environment and flags into a validated config
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Fetch.UserAgent == "DropURL/1.0" {
		cfg.Fetch.UserAgent = generateUserAgent()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogging installs the process logger; the closer releases the log file
func setupLogging(cfg *config.Config) (io.Closer, error) {
	lc := logging.DefaultConfig()
	lc.Level = logging.ParseLevel(cfg.Log.Level)
	lc.FilePath = cfg.Log.File
	if cfg.Log.MaxSizeMB > 0 {
		lc.MaxSize = cfg.Log.MaxSizeMB
	}
	lc.MaxBackups = cfg.Log.MaxBackups
	lc.MaxAge = cfg.Log.MaxAgeDays
	lc.Compress = cfg.Log.Compress
	return logging.SetDefault(*lc)
}

func generateUserAgent() string {
	if version != "" && version != "dev" {
		return fmt.Sprintf("DropURL/%s", version)
	}
	return "DropURL/dev"
}

func showCurrentConfig(w io.Writer, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	shown := *cfg
	if shown.Summary.APIKey != "" {
		shown.Summary.APIKey = "********"
	}

	yamlData, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	fmt.Fprintf(w, "# Current DropURL Configuration\n")
	fmt.Fprintf(w, "# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "# Configuration file search paths: ./dropurl.yml\n")
	fmt.Fprintf(w, "# Environment variables prefix: %s_\n\n", envPrefix)
	fmt.Fprint(w, string(yamlData))

	fmt.Fprintf(w, "\n# Configuration source priority:\n")
	fmt.Fprintf(w, "# 1. Command-line arguments (highest priority)\n")
	fmt.Fprintf(w, "# 2. Environment variables (%s_ prefix)\n", envPrefix)
	fmt.Fprintf(w, "# 3. Configuration file (dropurl.yml)\n")
	fmt.Fprintf(w, "# 4. Default values (lowest priority)\n")
	return nil
}
