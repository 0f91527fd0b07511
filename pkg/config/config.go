package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	xdgAppName = "taskboard"
	configFile = "config.json"
	envPrefix  = "TASKBOARD"

	DefaultCalendar        = "Tasks"
	DefaultStorageKey      = "tasks"
	DefaultExerciseMinutes = 60
)

type Config struct {
	// DataDir holds the storage keys. Empty means <config dir>/data.
	DataDir         string `json:"data_dir" mapstructure:"data_dir"`
	StorageKey      string `json:"storage_key" mapstructure:"storage_key"`
	Calendar        string `json:"calendar" mapstructure:"calendar"`
	RequireDueDate  bool   `json:"require_due_date" mapstructure:"require_due_date"`
	ExerciseMinutes int    `json:"exercise_minutes" mapstructure:"exercise_minutes"`
	DefaultSort     string `json:"default_sort" mapstructure:"default_sort"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		StorageKey:      DefaultStorageKey,
		Calendar:        DefaultCalendar,
		RequireDueDate:  true,
		ExerciseMinutes: DefaultExerciseMinutes,
		DefaultSort:     "none",
	}
}

// Dir is the per-user configuration directory (~/.config/taskboard).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", xdgAppName), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads path, falling back to defaults for a missing file or
// missing keys. TASKBOARD_<KEY> environment variables override both.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetDefault("data_dir", def.DataDir)
	v.SetDefault("storage_key", def.StorageKey)
	v.SetDefault("calendar", def.Calendar)
	v.SetDefault("require_due_date", def.RequireDueDate)
	v.SetDefault("exercise_minutes", def.ExerciseMinutes)
	v.SetDefault("default_sort", def.DefaultSort)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Calendar == "" {
		cfg.Calendar = DefaultCalendar
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = DefaultStorageKey
	}
	if cfg.ExerciseMinutes <= 0 {
		cfg.ExerciseMinutes = DefaultExerciseMinutes
	}
	return &cfg, nil
}

// ResolveDataDir returns the storage directory, defaulting under Dir.
func (c *Config) ResolveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

func Save(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file for writing: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(cfg)
}
