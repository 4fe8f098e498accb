// Package config resolves pgexplorer settings from flags, environment
// variables and an optional config file, in that priority order.
package config

import (
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/spektr-org/pgexplorer/engine"
)

// EnvPrefix prefixes every environment variable: --log-level is read from
// PGEXPLORER_LOG_LEVEL.
const EnvPrefix = "PGEXPLORER"

// Config holds every setting of the serve, describe and snapshot commands.
type Config struct {
	Data     string
	Host     string
	Port     int
	X        string
	Y        string
	Z        string
	Chart    string
	LogLevel string
	Config   string
}

// Default returns the settings used when nothing else is given.
func Default() Config {
	return Config{
		Data:     "pivoted.csv",
		Host:     "0.0.0.0",
		Port:     8080,
		Chart:    string(engine.ChartScatter),
		LogLevel: "info",
	}
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	if c.Data == "" {
		return errors.New("data path is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return errors.Errorf("port %d out of range", c.Port)
	}
	if !engine.ChartKind(c.Chart).Valid() {
		return errors.Errorf("chart %q: must be scatter or line", c.Chart)
	}
	return nil
}

// BindFlags registers one flag per setting on flags, writing into c.
func BindFlags(flags *pflag.FlagSet, c *Config) {
	d := Default()
	flags.StringVar(&c.Data, "data", d.Data, "Path to the pivoted indicator CSV.")
	flags.StringVar(&c.Host, "host", d.Host, "Interface to listen on.")
	flags.IntVar(&c.Port, "port", d.Port, "Port to listen on (also read from PORT).")
	flags.StringVar(&c.X, "x", "", "Initial X axis column.")
	flags.StringVar(&c.Y, "y", "", "Initial Y axis column.")
	flags.StringVar(&c.Z, "z", "", "Initial Z axis column.")
	flags.StringVar(&c.Chart, "chart", d.Chart, "Initial 2D chart type: scatter or line.")
	flags.StringVar(&c.LogLevel, "log-level", d.LogLevel, "Log level: debug, info, warn or error.")
	flags.StringVarP(&c.Config, "config", "c", "", "Configuration file to read from.")
}

// Resolve takes flags as the definition of every option and its default.
// Each flag not set on the command line is filled from the environment
// (EnvPrefix plus the upper-cased flag name with dashes as underscores), then
// from the config file named by --config. The port is also read from a bare
// PORT variable, as hosting platforms set it.
func Resolve(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return errors.Wrap(err, "binding flags")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", EnvPrefix+"_PORT", "PORT"); err != nil {
		return errors.Wrap(err, "binding PORT")
	}

	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading configuration file '%s'", c)
		}
		for _, key := range v.AllKeys() {
			if !validTags[key] {
				return errors.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		value := v.GetString(f.Name)
		if f.Value.Type() == "stringSlice" {
			// GetString is "" for a real list from a config file.
			value = strings.Join(v.GetStringSlice(f.Name), ",")
		}
		if err := f.Value.Set(value); err != nil {
			flagErr = errors.Wrapf(err, "option %s", f.Name)
		}
	})
	return flagErr
}

// Load registers flags for a fresh Config, parses args and resolves the
// rest. Used by tests and by callers without a cobra command.
func Load(args []string) (Config, error) {
	var c Config
	flags := pflag.NewFlagSet("pgexplorer", pflag.ContinueOnError)
	BindFlags(flags, &c)
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}
	if err := Resolve(viper.New(), flags); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

// Defaults returns the selector defaults carried by c.
func (c Config) Defaults() (x, y, z string, chart engine.ChartKind) {
	return c.X, c.Y, c.Z, engine.ChartKind(c.Chart)
}
