package config

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvMapping maps an environment variable to a configuration path
type EnvMapping struct {
	EnvVar     string
	ConfigPath string
}

// EnvMappings returns the environment variables read by Load, derived from
// the env tags of Config
func EnvMappings() []EnvMapping {
	return extractMappings(reflect.TypeOf(Config{}), "")
}

func extractMappings(t reflect.Type, prefix string) []EnvMapping {
	var mappings []EnvMapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("koanf")
		if !field.IsExported() || tag == "" || tag == "-" {
			continue
		}

		path := tag
		if prefix != "" {
			path = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			mappings = append(mappings, extractMappings(field.Type, path)...)
			continue
		}
		if envVar := field.Tag.Get("env"); envVar != "" && envVar != "-" {
			mappings = append(mappings, EnvMapping{EnvVar: envVar, ConfigPath: path})
		}
	}
	return mappings
}

// Load builds the configuration from defaults overridden by environment
// variables and validates the result
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	envToPath := make(map[string]string)
	for _, m := range EnvMappings() {
		envToPath[m.EnvVar] = m.ConfigPath
	}
	if err := k.Load(env.Provider(".", env.Opt{
		TransformFunc: func(key, value string) (string, any) {
			path, ok := envToPath[key]
			if !ok || value == "" {
				return "", nil
			}
			return path, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tag constraints and the cross-field rules of the
// processing section
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := c.Processing.ToProcessor().Validate(); err != nil {
		return fmt.Errorf("invalid processing configuration: %w", err)
	}
	return nil
}
