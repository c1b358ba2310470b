package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/HaujetZhao/CapsWriter-Offline-sub001/internal/hotkey"
)

// ClientConfig holds every configured key for the client, plus
// the supplemented UDP broadcast/control and traditional-conversion keys.
type ClientConfig struct {
	Addr      string            `mapstructure:"addr"`
	Port      int               `mapstructure:"port"`
	Shortcuts []hotkey.Shortcut `mapstructure:"shortcuts"`
	Threshold float64           `mapstructure:"threshold"`

	Paste       bool `mapstructure:"paste"`
	RestoreClip bool `mapstructure:"restore_clip"`

	SaveAudio    bool   `mapstructure:"save_audio"`
	AudioNameLen int    `mapstructure:"audio_name_len"`
	TrashPunc    string `mapstructure:"trash_punc"`

	HotZh   bool `mapstructure:"hot_zh"`
	HotEn   bool `mapstructure:"hot_en"`
	HotRule bool `mapstructure:"hot_rule"`

	MicSegDuration   float64 `mapstructure:"mic_seg_duration"`
	MicSegOverlap    float64 `mapstructure:"mic_seg_overlap"`
	FileSegDuration  float64 `mapstructure:"file_seg_duration"`
	FileSegOverlap   float64 `mapstructure:"file_seg_overlap"`

	UDPBroadcast        bool     `mapstructure:"udp_broadcast"`
	UDPBroadcastTargets []string `mapstructure:"udp_broadcast_targets"`

	UDPControl     bool   `mapstructure:"udp_control"`
	UDPControlAddr string `mapstructure:"udp_control_addr"`
	UDPControlPort int    `mapstructure:"udp_control_port"`

	TraditionalConvert bool   `mapstructure:"traditional_convert"`
	TraditionalLocale  string `mapstructure:"traditional_locale"`
}

// LoadClient reads path the same way LoadServer does, with client-specific
// defaults (threshold=0.3s and trash_punc="，。,.").
func LoadClient(path string) (ClientConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("CAPSWRITER")
	v.AutomaticEnv()

	v.SetDefault("addr", "127.0.0.1")
	v.SetDefault("port", 6016)
	v.SetDefault("threshold", 0.3)
	v.SetDefault("paste", false)
	v.SetDefault("restore_clip", true)
	v.SetDefault("save_audio", true)
	v.SetDefault("audio_name_len", 20)
	v.SetDefault("trash_punc", "，。,.")
	v.SetDefault("hot_zh", true)
	v.SetDefault("hot_en", true)
	v.SetDefault("hot_rule", true)
	v.SetDefault("mic_seg_duration", 15.0)
	v.SetDefault("mic_seg_overlap", 2.0)
	v.SetDefault("file_seg_duration", 25.0)
	v.SetDefault("file_seg_overlap", 2.0)
	v.SetDefault("udp_broadcast", false)
	v.SetDefault("udp_broadcast_targets", []string{})
	v.SetDefault("udp_control", false)
	v.SetDefault("udp_control_addr", "127.0.0.1")
	v.SetDefault("udp_control_port", 6017)
	v.SetDefault("traditional_convert", false)
	v.SetDefault("traditional_locale", "tw")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, fs.ErrNotExist) {
			return ClientConfig{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("config: unmarshal client config: %w", err)
	}
	for i, s := range cfg.Shortcuts {
		if err := s.Validate(); err != nil {
			return ClientConfig{}, fmt.Errorf("config: shortcuts[%d]: %w", i, err)
		}
	}
	return cfg, nil
}
