package util

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Configuration is threaded from main() into the evaluator, mirroring
// the teacher's util.Configuration. LoxHome/RootPath/Version/BuildDate/
// Commit are build-time and environment metadata; the GC and natives
// settings can additionally be supplied by an optional lox.toml: a
// native set is enabled when either its CLI flag or the file turns it on,
// and the file alone sets the GC sweep interval (there is no CLI flag for
// it).
type Configuration struct {
	Version   string
	BuildDate string
	Commit    string
	RootPath  string
	LoxHome   string

	LogLevel string
	LogFile  string

	GCSweepEveryNExits int

	EnableDB     bool
	EnableCrypto bool
	EnableConfig bool
}

// fileConfig is the shape of an optional lox.toml; only present fields
// override the defaults, never the other way around.
type fileConfig struct {
	GC struct {
		SweepEveryNExits int `toml:"sweep_every_n_exits"`
	} `toml:"gc"`
	Natives struct {
		EnableDB     bool `toml:"enable_db"`
		EnableCrypto bool `toml:"enable_crypto"`
		EnableConfig bool `toml:"enable_config"`
	} `toml:"natives"`
}

// LoadFile merges an optional lox.toml (next to scriptPath, or in
// LoxHome) into cfg. A missing file is not an error; the defaults already
// in cfg are left untouched.
func (cfg *Configuration) LoadFile(scriptPath string) error {
	candidates := []string{}
	if scriptPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(scriptPath), "lox.toml"))
	}
	if cfg.LoxHome != "" {
		candidates = append(candidates, filepath.Join(cfg.LoxHome, "lox.toml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		var fc fileConfig
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return err
		}
		if fc.GC.SweepEveryNExits > 0 {
			cfg.GCSweepEveryNExits = fc.GC.SweepEveryNExits
		}
		cfg.EnableDB = cfg.EnableDB || fc.Natives.EnableDB
		cfg.EnableCrypto = cfg.EnableCrypto || fc.Natives.EnableCrypto
		cfg.EnableConfig = cfg.EnableConfig || fc.Natives.EnableConfig
		return nil
	}
	return nil
}
