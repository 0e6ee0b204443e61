// Package config loads the settings of the pager demo.
package config

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	wp "github.com/zhangzqs/windowpager-go"
	"github.com/zhangzqs/windowpager-go/source/remote"
)

// Config aggregates configuration for the demo.
// Each field is owned by its respective package.
type Config struct {
	Pager  wp.Config     `mapstructure:"pager"`
	Store  StoreConfig   `mapstructure:"store"`
	Remote remote.Config `mapstructure:"remote"`
	// Local is the network in front of the fast source of the racing demo.
	Local remote.Config `mapstructure:"local"`
	Log   LogConfig     `mapstructure:"log"`
}

// StoreConfig locates the film catalogue.
type StoreConfig struct {
	DSN  string `mapstructure:"dsn"`
	Seed int    `mapstructure:"seed"`
}

// LogConfig controls the demo's logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	// File additionally receives JSON logs when set.
	File string `mapstructure:"file"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Pager:  wp.DefaultConfig(),
		Store:  StoreConfig{DSN: ":memory:", Seed: 500},
		Remote: remote.DefaultConfig(),
		Local:  remote.Config{},
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "WINDOWPAGER" and the dot character
// in keys is replaced by an underscore. For example, "pager.page_size"
// becomes "WINDOWPAGER_PAGER_PAGE_SIZE". An empty file looks for
// pagerdemo.yaml in the working directory.
func Load(file string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("pagerdemo")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("WINDOWPAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(append([]string(nil), parts...), tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
