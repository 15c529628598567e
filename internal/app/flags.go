package app

import (
	"flag"
	"strconv"
	"strings"
)

// KVList collects repeatable key=value flags.
type KVList []string

func (l *KVList) String() string {
	return strings.Join(*l, ",")
}

// Set appends a raw key=value pair.
func (l *KVList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// Map splits the collected pairs. Entries without '=' are skipped.
func (l KVList) Map() map[string]string {
	out := make(map[string]string, len(l))
	for _, kv := range l {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}

// Config represents the command-line parameters for the viewer and tools.
type Config struct {
	Quality    string
	Scale      float64
	TPS        int
	Seed       int64
	Backend    string
	Coverage   float64
	WindSpeed  float64
	CloudMap   string
	ConfigFile string
	LogLevel   string
	LogFormat  string
	Set        KVList
}

// NewConfig returns a Config populated with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Quality:   "medium",
		Scale:     2,
		TPS:       60,
		Seed:      10,
		Backend:   "parallel",
		Coverage:  0.4,
		WindSpeed: 5,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Quality, "quality", c.Quality, "sky quality: low, medium, high, ultra or a width")
	fs.Float64Var(&c.Scale, "scale", c.Scale, "window scale multiplier")
	fs.IntVar(&c.TPS, "tps", c.TPS, "ticks per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "noise seed")
	fs.StringVar(&c.Backend, "backend", c.Backend, "kernel backend (parallel, serial)")
	fs.Float64Var(&c.Coverage, "coverage", c.Coverage, "initial cloud coverage 0..1")
	fs.Float64Var(&c.WindSpeed, "wind-speed", c.WindSpeed, "wind speed in cloud units per second")
	fs.StringVar(&c.CloudMap, "cloud-map", c.CloudMap, "external density map image; disables procedural generation")
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "settings file (yaml, json or toml)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "log format: text or json")
	fs.Var(&c.Set, "set", "settings override in key=value form (repeatable)")
}

// Overrides returns the simulation settings given explicitly on the command
// line, keyed like clouds.FromMap expects.
func (c *Config) Overrides(fs *flag.FlagSet) map[string]string {
	out := map[string]string{}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "quality":
			out["quality"] = c.Quality
		case "seed":
			out["seed"] = strconv.FormatInt(c.Seed, 10)
		case "backend":
			out["backend"] = c.Backend
		case "coverage":
			out["coverage"] = strconv.FormatFloat(c.Coverage, 'f', -1, 64)
		case "wind-speed":
			out["wind_speed"] = strconv.FormatFloat(c.WindSpeed, 'f', -1, 64)
		case "cloud-map":
			out["cloud_map"] = c.CloudMap
			out["generate_cloud_map"] = strconv.FormatBool(c.CloudMap == "")
		}
	})
	return out
}
