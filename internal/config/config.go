// Package config loads the jeux server's YAML configuration, falling
// back to sensible defaults for anything the file omits or when no file
// is present at all.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvOverride is the environment variable that, when set, names the
// config file to load in place of the path passed to Load.
const EnvOverride = "JEUX_CONFIG"

// Server holds all configuration for a jeux server process.
type Server struct {
	// Network
	BindAddress string `yaml:"bind_address"`
	Port        int    `yaml:"port"`

	// MaxClients caps the number of simultaneously connected clients.
	// Zero means unbounded.
	MaxClients int `yaml:"max_clients"`

	// ReadTimeout/WriteTimeout bound a single packet's read or write. Zero
	// means the server's built-in defaults apply.
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns a Server config with sensible defaults.
func Default() Server {
	return Server{
		BindAddress:  "0.0.0.0",
		Port:         6431,
		MaxClients:   1024,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 10 * time.Second,
		LogLevel:     "info",
	}
}

// Load reads path (or, if EnvOverride is set, the file it names instead)
// and merges it onto Default(). A missing file is not an error: the
// defaults are returned unchanged.
func Load(path string) (Server, error) {
	if override := os.Getenv(EnvOverride); override != "" {
		path = override
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
