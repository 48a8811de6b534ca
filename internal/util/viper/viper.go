package viper

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/esfa/deskctl/internal/meta"
	v "github.com/spf13/viper"
)

// NewViper returns a viper that resolves keys from DESKCTL_ prefixed
// environment variables, with "." and "-" mapped to "_".
func NewViper() *v.Viper {
	rv := v.New()
	ConfigureEnvVars(rv, meta.EnvPrefix)
	return rv
}

// ConfigureEnvVars wires automatic environment lookups onto vip
func ConfigureEnvVars(vip *v.Viper, prefix string) {
	vip.SetEnvPrefix(prefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vip.AutomaticEnv()
}

// LoadLayered reads each existing file in order, merging later files over
// earlier ones. Missing files are skipped; files that exist but do not parse
// are an error. It returns the paths that were actually read.
func LoadLayered(vip *v.Viper, paths ...string) ([]string, error) {
	loaded := make([]string, 0, len(paths))
	for _, path := range paths {
		path = os.ExpandEnv(path)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return loaded, err
		}
		vip.SetConfigFile(path)
		var err error
		if len(loaded) == 0 {
			err = vip.ReadInConfig()
		} else {
			err = vip.MergeInConfig()
		}
		if err != nil {
			return loaded, err
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}
