package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/fourmi/internal/model"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const version = "fourmi v0.1.0"

var (
	cfgFile string
	verbose bool
	logFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fourmi",
	Short: "Fourmi - search the web for properties of a chemical compound",
	Long: `Fourmi is a web scraper that searches specific information for a given
compound (and its pseudonyms).

Each registered site parser requests pages about the compound and extracts
facts (attribute, value, conditions, source). Every fact then passes the
item pipeline: absent fields are filled, duplicates are dropped and, when
asked, only selected attributes are kept. Survivors are written to a feed.`,
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
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.fourmi/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging output")
	rootCmd.PersistentFlags().StringVar(&logFile, "log", "", "also write the log to a file")

	_ = viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".fourmi"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	configureEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// configureEnv maps FOURMI_PIPELINE_MATCHER onto pipeline.matcher and so on
func configureEnv(v *viper.Viper) {
	v.SetEnvPrefix("FOURMI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// registerDefaults declares every config key with its default so that
// environment variables are visible to Unmarshal.
func registerDefaults(v *viper.Viper, cfg *model.Config) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	var tree map[string]any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return
	}
	setDefaults(v, "", tree)
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, val := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// loadConfig merges defaults, config file, environment and bound flags
func loadConfig(v *viper.Viper) (*model.Config, error) {
	registerDefaults(v, model.DefaultConfig())

	cfg := &model.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, eris.Wrap(err, "cli: decode config")
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}
