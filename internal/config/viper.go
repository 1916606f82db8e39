package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NANOAUDIT_BACKENDS.
const EnvPrefix = "NANOAUDIT"

// NewViper returns a viper instance reading NANOAUDIT_* variables and the
// config file at explicitPath, or config.yaml in the search dirs.
func NewViper(explicitPath string) *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
		return v
	}
	v.SetConfigName("config")
	for _, dir := range SearchDirs() {
		v.AddConfigPath(dir)
	}
	return v
}

// SearchDirs lists the directories searched for config.yaml.
func SearchDirs() []string {
	added := make(map[string]struct{})
	var dirs []string
	add := func(path string) {
		if path == "" {
			return
		}
		if _, ok := added[path]; ok {
			return
		}
		added[path] = struct{}{}
		dirs = append(dirs, path)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		add(filepath.Join(xdg, "nanoaudit"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		add(filepath.Join(home, ".config", "nanoaudit"))
		add(filepath.Join(home, ".nanoaudit"))
	}
	return dirs
}

// ReadConfigFile loads the config file. A missing file is only an error
// when strict is set (an explicit path was given).
func ReadConfigFile(v *viper.Viper, strict bool) error {
	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if errors.As(err, &cfgErr) && !strict {
			return nil
		}
		return err
	}
	return nil
}

// ApplyToFlags copies values from v into flags the user did not set.
func ApplyToFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var firstErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		var val string
		switch f.Value.Type() {
		case "stringSlice", "stringArray":
			val = strings.Join(v.GetStringSlice(f.Name), ",")
		default:
			val = fmt.Sprintf("%v", v.Get(f.Name))
		}
		if val == "" {
			return
		}
		if err := f.Value.Set(val); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("config %s: %w", f.Name, err)
		}
	})
	return firstErr
}
