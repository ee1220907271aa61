package config

import (
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/ZeroTwo-Bot/kord/common"
	"github.com/ZeroTwo-Bot/kord/internal/config/hook"
)

type Config struct {
	Discord struct {
		Token   string
		Shards  int
		Intents common.Intents
		Guilds  []common.Snowflake
	}

	Logging struct {
		Level zapcore.Level
	}
}

func Read() (*Config, error) {
	v := viper.New()
	configureEnv(v)
	configureLocation(v)
	return readUnmarshalConfig(v)
}

func configureEnv(v *viper.Viper) {
	v.AutomaticEnv()
	v.SetEnvPrefix("conf")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
}

func configureLocation(v *viper.Viper) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
}

func readUnmarshalConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	c := &Config{}
	if err := v.Unmarshal(c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		hook.Snowflake(), hook.Level(),
	))); err != nil {
		return nil, err
	}
	if c.Discord.Shards == 0 {
		c.Discord.Shards = 1
	}
	return c, nil
}
