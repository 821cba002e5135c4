package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no configuration file is named on the command line
const DefaultPath = "eirc.toml"

// Config holds all bot configuration
type Config struct {
	Server Server `yaml:"server" toml:"server"`

	PluginDir   string `yaml:"plugin_dir" toml:"plugin_dir" env:"EIRC_PLUGIN_DIR"`
	DataDir     string `yaml:"data_dir" toml:"data_dir" env:"EIRC_DATA_DIR"`
	LogLevel    string `yaml:"log_level" toml:"log_level" env:"EIRC_LOG_LEVEL"`
	LogFile     string `yaml:"log_file" toml:"log_file" env:"EIRC_LOG_FILE"`
	MetricsAddr string `yaml:"metrics_addr" toml:"metrics_addr" env:"EIRC_METRICS_ADDR"`

	// Source is the file the configuration was read from, empty for defaults
	Source string `yaml:"-" toml:"-"`
}

// Server describes the network to connect to and the identity to use there
type Server struct {
	Hostname string   `yaml:"hostname" toml:"hostname" env:"EIRC_HOSTNAME"`
	Port     uint16   `yaml:"port" toml:"port" env:"EIRC_PORT"`
	Channels []string `yaml:"channels" toml:"channels" env:"EIRC_CHANNELS"`
	Nickname string   `yaml:"nickname" toml:"nickname" env:"EIRC_NICKNAME"`
	Username string   `yaml:"username" toml:"username" env:"EIRC_USERNAME"`
}

// Address returns host:port for dialing
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Hostname, s.Port)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: Server{
			Hostname: "irc.rizon.net",
			Port:     6667,
			Channels: []string{"#eirc"},
			Nickname: "eirc",
			Username: "eirc",
		},
		PluginDir: ".",
		DataDir:   "./data",
		LogLevel:  "info",
		LogFile:   "logs/eirc.log",
	}
}

// Load reads a TOML or YAML configuration file on top of the defaults.
// A missing file is not an error: the defaults are returned and missing is true.
// Environment overrides are applied in both cases.
func Load(path string) (cfg *Config, missing bool, err error) {
	cfg = Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		missing = true
	case err != nil:
		return nil, false, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, false, err
		}
		cfg.Source = path
	}

	applyEnvOverrides(cfg)

	return cfg, missing, nil
}

// decode picks the format from the file extension, TOML being the default
func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			var perr toml.ParseError
			if errors.As(err, &perr) {
				return fmt.Errorf("failed to parse config file %s:%d: %s\n%s",
					path, perr.Position.Line, perr.Message, perr.ErrorWithPosition())
			}
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func applyEnvOverrides(cfg *Config) {
	applyEnvOverridesRecursive(reflect.ValueOf(cfg).Elem())
}

func applyEnvOverridesRecursive(v reflect.Value) {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if field.PkgPath != "" {
			continue
		}

		if envTag := field.Tag.Get("env"); envTag != "" {
			if envValue, exists := os.LookupEnv(envTag); exists {
				setFieldFromEnv(fieldValue, envValue)
			}
		} else if field.Type.Kind() == reflect.Struct {
			applyEnvOverridesRecursive(fieldValue)
		}
	}
}

// setFieldFromEnv sets a field's value from an environment variable.
// Values that do not parse leave the field untouched.
func setFieldFromEnv(field reflect.Value, envValue string) {
	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v, err := strconv.ParseUint(envValue, 10, field.Type().Bits()); err == nil {
			field.SetUint(v)
		}
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			var values []string
			for _, v := range strings.Split(envValue, ",") {
				if v = strings.TrimSpace(v); v != "" {
					values = append(values, v)
				}
			}
			field.Set(reflect.ValueOf(values))
		}
	}
}
