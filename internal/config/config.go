package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"clinicsim/internal/runner"
)

// Config holds settings shared by every clinicsim command.
type Config struct {
	Addr            string          `mapstructure:"addr"`
	Server          string          `mapstructure:"server"`
	Token           string          `mapstructure:"token"`
	Workers         int             `mapstructure:"workers"`
	RunTimeout      time.Duration   `mapstructure:"run_timeout"`
	ScenarioTimeout time.Duration   `mapstructure:"scenario_timeout"`
	LogLevel        string          `mapstructure:"log_level"`
	LogFormat       string          `mapstructure:"log_format"`
	Scenario        runner.Scenario `mapstructure:"scenario"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	d := runner.DefaultScenario()
	v.SetDefault("addr", ":8080")
	v.SetDefault("server", "")
	v.SetDefault("token", "")
	v.SetDefault("workers", 0)
	v.SetDefault("run_timeout", 30*time.Minute)
	v.SetDefault("scenario_timeout", 10*time.Minute)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("scenario.nurses", d.Nurses)
	v.SetDefault("scenario.doctors", d.Doctors)
	v.SetDefault("scenario.patients_per_hour", d.PatientsPerHour)
	v.SetDefault("scenario.mean_time", d.MeanTime)
	v.SetDefault("scenario.std_dev", d.StdDev)
	v.SetDefault("scenario.spread", d.Spread)
	v.SetDefault("scenario.patient_band", d.PatientBand)
	v.SetDefault("scenario.nurse_only_share", d.NurseOnlyShare)
	v.SetDefault("scenario.samples", d.Samples)
	v.SetDefault("scenario.seed", 0)
}

// New returns a viper instance reading CLINICSIM_* environment variables and,
// when path is set, that YAML file.
func New(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("CLINICSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return v, nil
	}
	v.SetConfigName(".clinicsim")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers %d must be >= 0", cfg.Workers)
	}
	return &cfg, nil
}
