package main

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"

	"bitsmith/log"
	"bitsmith/memmap"
)

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LogConfig struct {
	// Modules lists the modules with debug logs enabled, see --log.
	Modules []string `toml:"modules"`
}

type Config struct {
	Layout memmap.Options `toml:"layout"`
	Server ServerConfig   `toml:"server"`
	Log    LogConfig      `toml:"log"`
}

// ConfigDir returns the bitsmith directory under the user config directory,
// or an empty string if there is none.
var ConfigDir = sync.OnceValue(func() string {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		log.ModCLI.Warnf("failed to get user config directory: %v", err)
		return ""
	}
	return filepath.Join(cfgdir, "bitsmith")
})

func defaultConfig() Config {
	return Config{
		Layout: memmap.DefaultOptions(),
		Server: ServerConfig{Addr: "localhost:8080"},
	}
}

const cfgFilename = "config.toml"

// loadConfig reads the configuration at path, or at the default location
// when path is empty. Settings absent from the file keep their default
// value, and a missing default file yields the default configuration.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	explicit := path != ""
	if !explicit {
		if ConfigDir() == "" {
			return cfg, nil
		}
		path = filepath.Join(ConfigDir(), cfgFilename)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return defaultConfig(), nil
		}
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	if err := cfg.Layout.Validate().Err(); err != nil {
		return Config{}, errors.Wrapf(err, "config %s: [layout]", path)
	}
	for _, key := range md.Undecoded() {
		log.ModCLI.WarnZ("unknown configuration key").
			String("file", path).
			String("key", key.String()).
			End()
	}
	log.ModCLI.DebugZ("configuration loaded").String("file", path).End()
	return cfg, nil
}

// writeConfig writes cfg as TOML.
func writeConfig(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}
