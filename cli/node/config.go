package node

import (
	"os"
	"path/filepath"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

// ConfigFile is the name of the optional configuration file in the config
// folder.
const ConfigFile = "pollbox.yaml"

// Config is the configuration of a node. It is injected before the
// initializers are started.
type Config struct {
	// Dir is the config folder the relative paths are resolved from.
	Dir string `yaml:"-"`

	LogLevel       string `yaml:"log_level"`
	DBFile         string `yaml:"db_file"`
	KeyFile        string `yaml:"key_file"`
	PrometheusAddr string `yaml:"prometheus_addr"`
}

// DefaultConfig returns the configuration used when the folder has no
// configuration file.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:            dir,
		LogLevel:       "info",
		DBFile:         "ledger.db",
		KeyFile:        "private.key",
		PrometheusAddr: "127.0.0.1:9090",
	}
}

// LoadConfig reads the configuration file of the folder if it exists. Missing
// entries keep their default value.
func LoadConfig(dir string) (Config, error) {
	cfg := DefaultConfig(dir)

	data, err := os.ReadFile(filepath.Join(dir, ConfigFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}

	if err != nil {
		return cfg, xerrors.Errorf("failed to read config: %v", err)
	}

	err = yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return cfg, xerrors.Errorf("failed to parse config: %v", err)
	}

	return cfg, nil
}

// Path returns the path of the file relative to the config folder, unless it
// is already absolute.
func (c Config) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}

	return filepath.Join(c.Dir, name)
}

// DefaultConfigDir returns the config folder in the home folder, or in the
// working directory when the home is unknown.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pollbox"
	}

	return filepath.Join(home, ".pollbox")
}
