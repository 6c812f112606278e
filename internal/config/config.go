// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads application settings and column definition files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// EnvPrefix prefixes environment overrides, e.g. ONTOGRID_LOCALE or
// ONTOGRID_GRAPHQL_ENDPOINT.
const EnvPrefix = "ONTOGRID"

// Config holds application settings.
type Config struct {
	Locale         string        `mapstructure:"locale"`
	Filterable     bool          `mapstructure:"filterable"`
	Exportable     bool          `mapstructure:"exportable"`
	ExportDir      string        `mapstructure:"export_dir"`
	MinColumnWidth float32       `mapstructure:"min_column_width"`
	Watch          bool          `mapstructure:"watch"`
	LoadLimit      int           `mapstructure:"load_limit"`
	GraphQL        GraphQLConfig `mapstructure:"graphql"`
	DeltaSharing   DeltaSharing  `mapstructure:"delta_sharing"`
}

// GraphQLConfig configures the GraphQL row source.
type GraphQLConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// DeltaSharing configures Delta Sharing requests.
type DeltaSharing struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// SetDefaults registers the default settings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("locale", "en")
	v.SetDefault("filterable", true)
	v.SetDefault("exportable", true)
	v.SetDefault("export_dir", ".")
	v.SetDefault("min_column_width", 100)
	v.SetDefault("watch", false)
	v.SetDefault("load_limit", 4)
	v.SetDefault("graphql.endpoint", "")
	v.SetDefault("graphql.timeout", 30*time.Second)
	v.SetDefault("delta_sharing.timeout", 60*time.Second)
}

// New returns a viper instance with defaults and environment overrides
// registered. path selects the config file; when empty, ontogrid.yaml is
// looked up in the working directory and $HOME/.config/ontogrid.
func New(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ontogrid")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ontogrid"))
		}
	}
	return v
}

// Load reads the configuration. A missing file is only an error when path
// names it explicitly.
func Load(path string) (*Config, error) {
	return Read(New(path), path != "")
}

// Read reads the config file registered on v and decodes it.
func Read(v *viper.Viper, required bool) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if required || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, err := cfg.Language(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Language parses the configured locale.
func (c *Config) Language() (language.Tag, error) {
	if c.Locale == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	return tag, nil
}
