package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskwell/taskwell/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "taskwell",
	Short: "Priority- and dependency-aware task orchestration engine",
	Long: `Taskwell schedules units of work by priority and dependency readiness,
executes them concurrently with bounded retry, supports cooperative
cancellation, and shuts down in priority-tiered order with hard deadlines.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/taskwell/config.yaml)")
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
	viper.SetEnvPrefix("TASKWELL")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TASKWELL_SHUTDOWN_FORCE_AFTER_MS for shutdown.force_after_ms
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
