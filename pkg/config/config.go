package config

import internalconfig "github.com/SmitUplenchwar2687/Rewind/internal/config"

// Config is the top-level configuration shared by every rewind command.
type Config = internalconfig.Config

// MonitorConfig holds the HTTP monitor settings.
type MonitorConfig = internalconfig.MonitorConfig

// Default returns a Config with sensible defaults.
func Default() Config {
	return internalconfig.Default()
}

// LoadFile reads a JSON or TOML config file and merges it with defaults.
func LoadFile(path string) (Config, error) {
	return internalconfig.LoadFile(path)
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	return internalconfig.WriteExample(path)
}
