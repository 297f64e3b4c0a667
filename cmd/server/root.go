package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jengzang/salesmap-backend-go/internal/config"
	"github.com/jengzang/salesmap-backend-go/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "salesmap",
	Short: "Sales geography dashboard backend",
	Long: `salesmap serves the sales dashboard API: aggregated metrics, the India
pin map and the dealer drill-down chart, backed by a local sqlite copy of the
ERP sales report.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); env SALESMAP_* and .env override defaults")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var err error
	cfg, err = config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		logger.Log.Fatalf("invalid configuration: %v", err)
	}

	level := cfg.Log.Level
	if flag, _ := rootCmd.PersistentFlags().GetString("loglevel"); flag != "" {
		level = flag
	}
	if err := logger.SetLevel(level); err != nil {
		logger.Log.Fatal(err)
	}
}
