package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Training   TrainingConfig   `mapstructure:"training"`
	Artifacts  ArtifactsConfig  `mapstructure:"artifacts"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ModerationConfig struct {
	// Threshold above which a scam score blocks content. Callers may
	// override per call; this is the default used by the sweeps.
	Threshold float64             `mapstructure:"threshold"`
	Denylist  map[string][]string `mapstructure:"denylist"`
}

type TrainingConfig struct {
	MinExamples   int     `mapstructure:"min_examples"`
	NegativeRatio int     `mapstructure:"negative_ratio"`
	MaxNegatives  int     `mapstructure:"max_negatives"`
	VocabSize     int     `mapstructure:"vocab_size"`
	MaxLen        int     `mapstructure:"max_len"`
	EmbeddingDim  int     `mapstructure:"embedding_dim"`
	HiddenSize    int     `mapstructure:"hidden_size"`
	Epochs        int     `mapstructure:"epochs"`
	BatchSize     int     `mapstructure:"batch_size"`
	LearningRate  float64 `mapstructure:"learning_rate"`
	Seed          int64   `mapstructure:"seed"`
}

type ArtifactsConfig struct {
	Dir string `mapstructure:"dir"`
}

var globalConfig Config

func Load(configPath string) error {
	if err := loadConfigFile(configPath, "config", &globalConfig); err != nil {
		return fmt.Errorf("could not load main config file: %w", err)
	}

	setDefaultValues()

	return nil
}

func loadConfigFile(configPath, fileName string, out interface{}) error {
	viper.SetConfigName(fileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file %s.yaml not found, using only environment variables", fileName)
		}
		return fmt.Errorf("error reading config file %s.yaml: %w", fileName, err)
	}

	if err := viper.Unmarshal(out); err != nil {
		return fmt.Errorf("failed to unmarshal %s config: %w", fileName, err)
	}

	return nil
}

func setDefaultValues() {
	if globalConfig.Database.SSLMode == "" {
		globalConfig.Database.SSLMode = "disable"
	}
	if globalConfig.Moderation.Threshold == 0 {
		globalConfig.Moderation.Threshold = 0.7
	}
	if globalConfig.Training.MinExamples == 0 {
		globalConfig.Training.MinExamples = 100
	}
	if globalConfig.Training.NegativeRatio == 0 {
		globalConfig.Training.NegativeRatio = 2
	}
	if globalConfig.Training.MaxNegatives == 0 {
		globalConfig.Training.MaxNegatives = 1000
	}
	if globalConfig.Training.VocabSize == 0 {
		globalConfig.Training.VocabSize = 10000
	}
	if globalConfig.Training.MaxLen == 0 {
		globalConfig.Training.MaxLen = 100
	}
	if globalConfig.Training.EmbeddingDim == 0 {
		globalConfig.Training.EmbeddingDim = 32
	}
	if globalConfig.Training.HiddenSize == 0 {
		globalConfig.Training.HiddenSize = 16
	}
	if globalConfig.Training.Epochs == 0 {
		globalConfig.Training.Epochs = 10
	}
	if globalConfig.Training.BatchSize == 0 {
		globalConfig.Training.BatchSize = 32
	}
	if globalConfig.Training.LearningRate == 0 {
		globalConfig.Training.LearningRate = 0.05
	}
	if globalConfig.Artifacts.Dir == "" {
		globalConfig.Artifacts.Dir = "artifacts"
	}
}

func GetConfig() *Config {
	return &globalConfig
}
