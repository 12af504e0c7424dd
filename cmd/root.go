package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/talent-screener/internal/ai"
	"github.com/spigell/talent-screener/internal/notify"
	"github.com/spigell/talent-screener/internal/scoring"
	"github.com/spigell/talent-screener/internal/store"
)

const (
	app = "talent-screener"
)

type Config struct {
	JobsFile    string         `mapstructure:"jobs-file"`
	MetricsFile string         `mapstructure:"metrics-file"`
	Database    DatabaseConfig `mapstructure:"database"`
	Storage     StorageConfig  `mapstructure:"storage"`
	AI          AIConfig       `mapstructure:"ai"`
	Notify      NotifyConfig   `mapstructure:"notify"`
	Pipeline    PipelineConfig `mapstructure:"pipeline"`
	Scoring     ScoringConfig  `mapstructure:"scoring"`
}

type DatabaseConfig struct {
	store.Config `mapstructure:",squash"`
	PasswordFile string `mapstructure:"password-file"`
}

type StorageConfig struct {
	Type  string       `mapstructure:"type" validate:"omitempty,oneof=fs minio"`
	Dir   string       `mapstructure:"dir" validate:"required_unless=Type minio"`
	Minio *MinioConfig `mapstructure:"minio" validate:"required_if=Type minio"`
}

type MinioConfig struct {
	Endpoint      string `mapstructure:"endpoint" validate:"required"`
	Bucket        string `mapstructure:"bucket" validate:"required"`
	AccessKey     string `mapstructure:"access-key"`
	SecretKeyFile string `mapstructure:"secret-key-file"`
	UseSSL        bool   `mapstructure:"use-ssl"`
}

type AIConfig struct {
	Provider string         `mapstructure:"provider" validate:"omitempty,oneof=gemini vertex"`
	Retry    ai.RetryPolicy `mapstructure:"retry"`
	Gemini   *GeminiConfig  `mapstructure:"gemini"`
	Vertex   *VertexConfig  `mapstructure:"vertex"`
}

type GeminiConfig struct {
	APIKeyFile   string  `mapstructure:"api-key-file"`
	Model        string  `mapstructure:"model"`
	Temperature  float32 `mapstructure:"temperature"`
	MaxLogLength int     `mapstructure:"max-log-length"`
}

type VertexConfig struct {
	ProjectID   string  `mapstructure:"project-id" validate:"required"`
	Location    string  `mapstructure:"location"`
	Model       string  `mapstructure:"model"`
	Temperature float32 `mapstructure:"temperature"`
}

type NotifyConfig struct {
	Channel   string              `mapstructure:"channel" validate:"omitempty,oneof=log smtp gmail"`
	HREmail   string              `mapstructure:"hr-email" validate:"omitempty,email"`
	Signature string              `mapstructure:"signature"`
	SMTP      *SMTPConfig         `mapstructure:"smtp" validate:"required_if=Channel smtp"`
	Gmail     *notify.GmailConfig `mapstructure:"gmail" validate:"required_if=Channel gmail"`
}

type SMTPConfig struct {
	notify.SMTPConfig `mapstructure:",squash"`
	PasswordFile      string `mapstructure:"password-file"`
}

type PipelineConfig struct {
	Concurrency         int           `mapstructure:"concurrency" validate:"gte=0"`
	StageTimeout        time.Duration `mapstructure:"stage-timeout" validate:"gte=0"`
	AcceptanceThreshold float64       `mapstructure:"acceptance-threshold" validate:"gte=0,lte=100"`
}

type ScoringConfig struct {
	Weights  *scoring.Weights  `mapstructure:"weights"`
	Synonyms map[string]string `mapstructure:"synonyms"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "talent-screener parses, classifies and scores resumes against job profiles and forwards the best candidates to HR",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, env := range map[string]string{
		"database.password-file":    "TALENT_DB_PASSWORD_FILE",
		"ai.gemini.api-key-file":    "GEMINI_API_KEY_FILE",
		"notify.smtp.password-file": "SMTP_PASSWORD_FILE",
	} {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is talent-screener.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config is needed only for commands touching candidates.
	if runCmd.CalledAs() == "" && candidatesCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
		viper.SetConfigType("yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	// unset weights keep their defaults
	weights := scoring.DefaultWeights()
	config := &Config{Scoring: ScoringConfig{Weights: &weights}}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	if config.Storage.Type == "" {
		config.Storage.Type = "fs"
	}
	if config.AI.Provider == "" {
		config.AI.Provider = "gemini"
	}
	if config.Notify.Channel == "" {
		config.Notify.Channel = "log"
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}
