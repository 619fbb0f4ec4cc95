package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codetrek/workforce/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "workforce",
	Short: "Task-tree scheduler and bounded agent pool",
	Long: `Workforce executes a dynamically growing tree of tasks with a bounded
pool of worker-agent sessions. Tasks may succeed, fail, or decompose
themselves into child tasks at runtime; cancellations cascade through
subtrees; everything that happens is reported on an ordered event stream.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/workforce/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("WORKFORCE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., WORKFORCE_WORKFORCE_MAX_AGENTS for workforce.max_agents
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
