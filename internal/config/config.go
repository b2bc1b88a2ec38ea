// Luminary: A streamlined CLI tool for searching and downloading manga.
// Copyright (C) 2025 Luca M. Schmidt (LuMiSxh)
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package config loads tanoshi's YAML configuration via viper, following
// the layered-load pattern the teranos-QNTX pack member uses for its own
// config package (defaults, then file, then environment overrides),
// adapted here to a single Load entrypoint rather than a global singleton.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"tanoshi/pkg/apperr"
)

// updateIntervalFloor matches updateworker.MinInterval; duplicated here
// (rather than imported) to keep config free of a dependency on the
// worker packages it configures.
const updateIntervalFloor = time.Hour

// LocalSource is one entry of the local_path config key: either a bare
// string (single Local source, id 10000) or a {name, path} pair (ids
// 10000+, assigned in declaration order).
type LocalSource struct {
	Name string
	Path string
}

// CredentialBlock is the shape shared by the optional notifier/tracker
// credential sections (telegram, pushover, gotify, myanimelist, anilist):
// free-form key/value pairs, since each backend's required fields differ.
type CredentialBlock map[string]string

// Config is the fully resolved, typed configuration.
type Config struct {
	Port                  int    `mapstructure:"port"`
	DatabasePath          string `mapstructure:"database_path"`
	Secret                string `mapstructure:"secret"`
	UpdateInterval        time.Duration
	UpdateIntervalSeconds int    `mapstructure:"update_interval"`
	AutoDownloadChapters  bool   `mapstructure:"auto_download_chapters"`
	PluginPath            string `mapstructure:"plugin_path"`
	LocalPath             []LocalSource
	DownloadPath          string `mapstructure:"download_path"`
	CachePath             string `mapstructure:"cache_path"`
	EnablePlayground      bool   `mapstructure:"enable_playground"`
	ExtensionRepository   string `mapstructure:"extension_repository"`

	Telegram    CredentialBlock `mapstructure:"telegram"`
	Pushover    CredentialBlock `mapstructure:"pushover"`
	Gotify      CredentialBlock `mapstructure:"gotify"`
	MyAnimeList CredentialBlock `mapstructure:"myanimelist"`
	AniList     CredentialBlock `mapstructure:"anilist"`
}

// Load reads configPath (YAML) into a Config, applying defaults for any
// absent key and auto-generating+persisting a secret if none is set.
// An empty configPath loads defaults only (used by tests and by a bare
// `tanoshi serve` with no --config flag, against TANOSHI_HOME).
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TANOSHI")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, apperr.Track(err).AsIO().WithOp("config.Load").Error()
			}
		}
	}

	cfg, err := unmarshal(v)
	if err != nil {
		return nil, err
	}

	if cfg.UpdateIntervalSeconds <= 0 {
		cfg.UpdateInterval = updateIntervalFloor
	} else {
		cfg.UpdateInterval = time.Duration(cfg.UpdateIntervalSeconds) * time.Second
		if cfg.UpdateInterval < updateIntervalFloor {
			cfg.UpdateInterval = updateIntervalFloor
		}
	}

	cfg.LocalPath = parseLocalPath(v.Get("local_path"))

	if cfg.Secret == "" {
		secret, genErr := generateSecret()
		if genErr != nil {
			return nil, genErr
		}
		cfg.Secret = secret
		v.Set("secret", secret)
		if configPath != "" {
			if err := writeBack(v, configPath); err != nil {
				return nil, err
			}
		}
	}
	if len(cfg.Secret) != 16 {
		return nil, apperr.Newf("config: secret must be exactly 16 bytes, got %d", len(cfg.Secret)).AsBadInput().Error()
	}

	return cfg, nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.Track(err).AsBadInput().WithOp("config.unmarshal").Error()
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 80)
	v.SetDefault("database_path", filepath.Join(defaultHome(), "tanoshi.db"))
	v.SetDefault("update_interval", int(updateIntervalFloor/time.Second))
	v.SetDefault("auto_download_chapters", false)
	v.SetDefault("plugin_path", filepath.Join(defaultHome(), "plugins"))
	v.SetDefault("local_path", filepath.Join(defaultHome(), "local"))
	v.SetDefault("download_path", filepath.Join(defaultHome(), "downloads"))
	v.SetDefault("cache_path", filepath.Join(defaultHome(), "cache"))
	v.SetDefault("enable_playground", false)
	v.SetDefault("extension_repository", "")
}

func defaultHome() string {
	if home := os.Getenv("TANOSHI_HOME"); home != "" {
		return home
	}
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".tanoshi")
	}
	return ".tanoshi"
}

// parseLocalPath implements the dual shape of local_path: a bare string
// yields one source at LocalSourceIDFloor, a list of maps yields one per
// entry in order.
func parseLocalPath(raw interface{}) []LocalSource {
	switch v := raw.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []LocalSource{{Name: "Local", Path: v}}
	case []interface{}:
		sources := make([]LocalSource, 0, len(v))
		for _, item := range v {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := m["name"].(string)
			path, _ := m["path"].(string)
			if path == "" {
				continue
			}
			if name == "" {
				name = path
			}
			sources = append(sources, LocalSource{Name: name, Path: path})
		}
		return sources
	default:
		return nil
	}
}

func generateSecret() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", apperr.Track(err).AsIO().WithOp("config.generateSecret").Error()
	}
	return hex.EncodeToString(buf), nil
}

func writeBack(v *viper.Viper, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return apperr.Track(err).AsIO().WithOp("config.writeBack").Error()
	}
	if err := v.WriteConfigAs(configPath); err != nil {
		return apperr.Track(err).AsIO().WithOp("config.writeBack").Error()
	}
	return nil
}

// String renders a safe summary for logging, omitting the secret.
func (c *Config) String() string {
	return fmt.Sprintf("Config{port=%d db=%s update_interval=%s auto_download=%t sources=%d}",
		c.Port, c.DatabasePath, c.UpdateInterval, c.AutoDownloadChapters, len(c.LocalPath))
}
