package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"clinicsim/internal/config"
	"clinicsim/internal/logging"
)

var (
	cfgFile string
	v       *viper.Viper
	cfg     *config.Config
	log     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "clinicsim",
	Short: "clinicsim - Monte Carlo staffing estimates for a nurse/doctor clinic",
	Long: `clinicsim simulates an hour of a two-stage clinic (nurse, then optionally
a doctor) many times over and reports mean staff utilization and patient
waiting times for a given staffing level.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := bindFlags(cmd); err != nil {
			return err
		}
		var err error
		if cfg, err = config.Load(v); err != nil {
			return err
		}
		log, err = logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
		return err
	},
}

func main() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(gridCmd)
	rootCmd.AddCommand(statusCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.clinicsim.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().Int("workers", 0, "replications run in parallel (0 = one per CPU)")
	rootCmd.PersistentFlags().String("server", "", "clinicsim server URL; run remotely when set")
	rootCmd.PersistentFlags().String("token", "", "bearer token sent to the server")
}

func initConfig() {
	var err error
	v, err = config.New(cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// persistentKeys maps persistent flags to config keys.
var persistentKeys = map[string]string{
	"log-level":  "log_level",
	"log-format": "log_format",
	"workers":    "workers",
	"server":     "server",
	"token":      "token",
}

// bindFlags binds the root flags and the running command's own flags to
// their config keys. Flags only win over file and environment when set.
func bindFlags(cmd *cobra.Command) error {
	for flag, key := range persistentKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	if keys, ok := commandKeys[cmd.Name()]; ok {
		for flag, key := range keys {
			if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
				return err
			}
		}
	}
	return nil
}

var commandKeys = map[string]map[string]string{}
