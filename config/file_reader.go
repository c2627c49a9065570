package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// MainConfigFileName is the file `lazyvolet start` looks for in the
// current directory by default.
const MainConfigFileName = "lazymc.toml"

var ErrConfigExists = fmt.Errorf("config file already exists")

// Load reads and decodes a TOML config file, starting from Default() so
// any key the file omits keeps its default value, the way the teacher's
// LoadServerCfgFromPath decodes onto DefaultServerConfig().
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg.FilePath = path
	return cfg, nil
}

// WriteDefault writes a fresh default config to path, refusing to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return ErrConfigExists
		} else if !os.IsNotExist(err) {
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(Default())
}
