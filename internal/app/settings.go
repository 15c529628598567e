package app

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"cloudsky/internal/clouds"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// LoadSettings reads a settings file into the flat key/value form consumed by
// clouds.FromMap. Lists become comma-separated strings so colours can be
// written as [r, g, b].
func LoadSettings(path string) (map[string]string, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("app: read settings %s: %w", path, err)
	}
	out := make(map[string]string, len(v.AllKeys()))
	for _, key := range v.AllKeys() {
		switch val := v.Get(key).(type) {
		case []any:
			parts := make([]string, len(val))
			for i, p := range val {
				parts[i] = fmt.Sprint(p)
			}
			out[key] = strings.Join(parts, ",")
		default:
			out[key] = v.GetString(key)
		}
	}
	return out, nil
}

// Resolve merges the settings file named by c.ConfigFile with the flags set
// explicitly on fs. Flags win, and -set pairs win over everything.
func Resolve(c *Config, fs *flag.FlagSet) (clouds.Config, error) {
	settings := map[string]string{
		"quality":  c.Quality,
		"seed":     fmt.Sprint(c.Seed),
		"backend":  c.Backend,
		"coverage": fmt.Sprint(c.Coverage),
	}
	if c.ConfigFile != "" {
		loaded, err := LoadSettings(c.ConfigFile)
		if err != nil {
			return clouds.Config{}, err
		}
		for k, v := range loaded {
			settings[k] = v
		}
	}
	for k, v := range c.Overrides(fs) {
		settings[k] = v
	}
	for k, v := range c.Set.Map() {
		settings[k] = v
	}
	return clouds.FromMap(settings), nil
}

// NewLogger builds the logger used by the command-line tools.
func NewLogger(level, format string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	l.SetLevel(lvl)
	switch format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("app: unknown log format %q", format)
	}
	return l, nil
}
