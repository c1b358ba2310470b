// Package config loads server.yaml/client.yaml plus CAPSWRITER_* environment
// overrides into typed configuration structs, the way the rest of this
// pack's services separate "what to run with" from "how to run it".
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ModelType enumerates the offline ASR backends a worker can be configured
// to run. The model itself is an external collaborator; this is only the
// selector the worker supervisor reads.
type ModelType string

const (
	ModelFunASRNano ModelType = "funasr_nano"
	ModelSenseVoice ModelType = "sensevoice"
	ModelParaformer ModelType = "paraformer"
)

// ServerConfig holds every configured key for the server, plus the
// dead-letter store path this repo adds for persisting worker failures.
type ServerConfig struct {
	Addr         string    `mapstructure:"addr"`
	Port         int       `mapstructure:"port"`
	ModelType    ModelType `mapstructure:"model_type"`
	FormatNum    bool      `mapstructure:"format_num"`
	FormatSpell  bool      `mapstructure:"format_spell"`
	LogLevel     string    `mapstructure:"log_level"`
	AsrWorkerBin string    `mapstructure:"asr_worker_bin"`
	DeadLetterDB string    `mapstructure:"dead_letter_db"`
	MetricsAddr  string    `mapstructure:"metrics_addr"`
}

// LoadServer reads path (if present; a missing file is not an error, since
// every key has a default), applies CAPSWRITER_* environment overrides, and
// returns the resulting ServerConfig. An adjacent .env file, if present, is
// loaded first so its values are visible to the environment override pass.
func LoadServer(path string) (ServerConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CAPSWRITER")
	v.AutomaticEnv()

	v.SetDefault("addr", "0.0.0.0")
	v.SetDefault("port", 6016)
	v.SetDefault("model_type", string(ModelParaformer))
	v.SetDefault("format_num", true)
	v.SetDefault("format_spell", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("asr_worker_bin", "./asrworker")
	v.SetDefault("dead_letter_db", "dead_letters.db")
	v.SetDefault("metrics_addr", ":9090")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return ServerConfig{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("config: unmarshal server config: %w", err)
	}
	return cfg, nil
}
