package main

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultStore is the store backend used when the config does not name one.
const DefaultStore = "duckdb"

// DefaultStoreFile is the name of the embedded store file inside the config dir.
const DefaultStoreFile = "vaults.db"

type config struct {
	// Store selects the backend: "duckdb" (embedded) or "postgres".
	Store string `yaml:"store"`

	// Path is the embedded store file. Empty means <dir>/vaults.db.
	Path string `yaml:"path,omitempty"`

	// DBURI is the PostgreSQL connection string for the postgres backend.
	DBURI string `yaml:"dburi,omitempty"`
}

func newConfig() *config {
	return &config{
		Store: DefaultStore,
	}
}

func loadConfig(path string) (*config, error) {
	conf := newConfig()

	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// a missing config means the embedded defaults
		return conf, nil
	}
	if err != nil {
		return &config{}, err
	}

	if err := yaml.Unmarshal(buf, conf); err != nil {
		return &config{}, err
	}
	if conf.Store == "" {
		conf.Store = DefaultStore
	}

	return conf, nil
}

func defaultConfigLocation(dir string) (string, error) {
	if dir == "" {
		// the default directory is home
		var err error
		dir, err = homedir.Dir()
		if err != nil {
			return "", fmt.Errorf("home dir: %s", err)
		}

		dir = path.Join(dir, ".timevault")
	}

	// ignore err if dir already exists
	if err := os.Mkdir(dir, 0o755); err != nil {
		if !strings.Contains(err.Error(), "file exists") {
			return "", fmt.Errorf("mkdir: %s", err)
		}
	}

	return dir, nil
}
