// Package config loads runtime settings for the exposuretrack binary.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	AppName    = "exposuretrack"
	FileName   = "config.yaml"
	DefaultLog = AppName + ".log"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	DataDir string  `mapstructure:"data_dir" validate:"required"`
	Log     Log     `mapstructure:"log"`
	Backups Backups `mapstructure:"backups"`
}

type Log struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file" validate:"required"`
}

type Backups struct {
	Keep int `mapstructure:"keep" validate:"gte=0,lte=100"`
}

// DefaultDataDir follows XDG: $XDG_DATA_HOME/exposuretrack, falling back to
// ~/.local/share/exposuretrack and finally the working directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "." + AppName
	}
	return filepath.Join(home, ".local", "share", AppName)
}

// DefaultPath is where Load looks when no explicit file is given.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName, FileName)
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return FileName
	}
	return filepath.Join(home, ".config", AppName, FileName)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", DefaultLog)
	v.SetDefault("backups.keep", 10)
}

// Load reads path as YAML. A missing file yields defaults; a file that
// exists but cannot be parsed is an error.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// LogLevel maps Log.Level onto slog. Unknown values read as info.
func (c Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// LogPath resolves Log.File against DataDir unless it is absolute.
func (c Config) LogPath() string {
	if filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(c.DataDir, c.Log.File)
}
