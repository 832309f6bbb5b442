package main

import (
	"errors"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// config holds everything resctl needs to reach the API and, for watch,
// the change stream. Defaults live in struct tags; values come from flags,
// RESCTL_* environment variables and the tag defaults, in that order.
type config struct {
	Endpoint   string `mapstructure:"endpoint" default:""`
	PrimaryKey string `mapstructure:"primary_key" default:"id"`
	Optimistic bool   `mapstructure:"optimistic" default:"true"`
	Verbose    bool   `mapstructure:"verbose" default:"false"`
	Token      string `mapstructure:"token" default:""`

	Cache  cacheConfig  `mapstructure:"cache"`
	Stream streamConfig `mapstructure:"stream"`
}

type cacheConfig struct {
	Kind string `mapstructure:"kind" default:"memory"`
	// Items and Lists cap entries per resource for the bounded backends.
	Items int `mapstructure:"items" default:"4096"`
	Lists int `mapstructure:"lists" default:"256"`
	// RedisAddr is used by the redis backend only.
	RedisAddr string `mapstructure:"redis_addr" default:"localhost:6379"`
}

type streamConfig struct {
	Kind         string `mapstructure:"kind" default:"sse"`
	URL          string `mapstructure:"url" default:""`
	RedisAddr    string `mapstructure:"redis_addr" default:"localhost:6379"`
	RedisChannel string `mapstructure:"redis_channel" default:""`
}

func loadConfig() (*config, error) {
	v := viper.New()

	// Recursively parse struct tags to set default values
	bindDefaults(v, config{}, "")

	// Map environment variables to nested keys (e.g. RESCTL_CACHE_KIND -> cache.kind)
	v.SetEnvPrefix("RESCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Flags win over the environment when set
	pf := rootCmd.PersistentFlags()
	for key, name := range map[string]string{
		"endpoint":    "endpoint",
		"primary_key": "primary-key",
		"optimistic":  "optimistic",
		"verbose":     "verbose",
		"cache.kind":  "cache",
		"token":       "token",
	} {
		if err := v.BindPFlag(key, pf.Lookup(name)); err != nil {
			return nil, err
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Endpoint == "" {
		return nil, errors.New("endpoint is required (--endpoint or RESCTL_ENDPOINT)")
	}
	return &cfg, nil
}

// bindDefaults uses reflection to iterate over the struct and set default
// values in Viper based on the 'default' and 'mapstructure' tags.
func bindDefaults(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindDefaults(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set the default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
