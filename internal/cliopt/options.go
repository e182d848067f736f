package cliopt

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nonibytes/tarpit/tarpit"
)

// GlobalOptions are resolved once at the CLI root and passed to subcommands.
// Precedence is flag, then TARPIT_* environment, then config file, then
// the defaults below.
//
// NOTE: This is a separate package to avoid import cycles between the root
// command and per-command code.
type GlobalOptions struct {
	Config string `mapstructure:"config"`

	Backend        string `mapstructure:"backend" validate:"oneof=json sqlite postgres bolt"`
	Path           string `mapstructure:"path"`
	SQLiteDriver   string `mapstructure:"sqlite-driver" validate:"oneof=sqlite sqlite3"`
	PostgresDSN    string `mapstructure:"pg-dsn" validate:"required_if=Backend postgres"`
	PostgresSchema string `mapstructure:"pg-schema" validate:"omitempty,max=63"`
	SchemaFile     string `mapstructure:"schema-file"`

	Format    string `mapstructure:"format" validate:"oneof=pretty json yaml"`
	LogLevel  string `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log-format" validate:"oneof=text json"`
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		Backend:        "json",
		SQLiteDriver:   "sqlite",
		PostgresSchema: "tarpit",
		Format:         "pretty",
		LogLevel:       "warn",
		LogFormat:      "text",
	}
}

func BindGlobalFlags(fs *pflag.FlagSet, g *GlobalOptions) {
	fs.StringVar(&g.Config, "config", g.Config, "config file (default ~/.tarpit/config.yaml)")

	fs.StringVar(&g.Backend, "backend", g.Backend, "backend: json|sqlite|postgres|bolt")
	fs.StringVar(&g.Path, "path", g.Path, "store file for json, sqlite and bolt backends (default ~/.tarpit/tarpit.<ext>)")
	fs.StringVar(&g.SQLiteDriver, "sqlite-driver", g.SQLiteDriver, "database/sql driver: sqlite (modernc) or sqlite3 (cgo)")
	fs.StringVar(&g.PostgresDSN, "pg-dsn", g.PostgresDSN, "postgres DSN")
	fs.StringVar(&g.PostgresSchema, "pg-schema", g.PostgresSchema, "postgres schema holding the tarpit tables")
	fs.StringVar(&g.SchemaFile, "schema-file", g.SchemaFile, "YAML or JSON field schema replacing the built-in ticket schema")

	fs.StringVar(&g.Format, "format", g.Format, "output format: pretty|json|yaml")
	fs.StringVar(&g.LogLevel, "log-level", g.LogLevel, "log level: debug|info|warn|error")
	fs.StringVar(&g.LogFormat, "log-format", g.LogFormat, "log format: text|json")
}

// Loaded is the outcome of Load: the merged options and the viper instance
// they came from.
type Loaded struct {
	Options GlobalOptions
	Viper   *viper.Viper
}

// Load merges fs with the environment and the config file, then validates
// the result.
func Load(fs *pflag.FlagSet) (Loaded, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".tarpit", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
		}
	}

	v.SetEnvPrefix("TARPIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	d := DefaultGlobalOptions()
	v.SetDefault("config", d.Config)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("path", d.Path)
	v.SetDefault("sqlite-driver", d.SQLiteDriver)
	v.SetDefault("pg-dsn", d.PostgresDSN)
	v.SetDefault("pg-schema", d.PostgresSchema)
	v.SetDefault("schema-file", d.SchemaFile)
	v.SetDefault("format", d.Format)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)

	if err := v.BindPFlags(fs); err != nil {
		return Loaded{}, errors.Wrap(err, "bind flags failed")
	}
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Loaded{}, errors.Wrapf(err, "read config %s failed", v.ConfigFileUsed())
		}
	}

	var g GlobalOptions
	if err := v.Unmarshal(&g); err != nil {
		return Loaded{}, errors.Wrap(err, "decode options failed")
	}
	g.Backend = strings.ToLower(g.Backend)
	g.Format = strings.ToLower(g.Format)
	g.LogLevel = strings.ToLower(g.LogLevel)
	g.LogFormat = strings.ToLower(g.LogFormat)
	if err := g.Validate(); err != nil {
		return Loaded{}, err
	}
	return Loaded{Options: g, Viper: v}, nil
}

// Validate checks the option values against their declared constraints
func (g GlobalOptions) Validate() error {
	if err := validator.New().Struct(g); err != nil {
		return errors.Wrap(err, "invalid options")
	}
	return nil
}

// Logger builds a slog logger writing to w at the configured level
func (g GlobalOptions) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch g.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if g.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Schema returns the field schema: the schema file when one is named, else
// the config file's schema section, else the built-in ticket schema.
func (l Loaded) Schema() (tarpit.Schema, error) {
	if path := l.Options.SchemaFile; path != "" {
		b, err := os.ReadFile(ExpandHome(path))
		if err != nil {
			return tarpit.Schema{}, errors.Wrap(err, "read schema file failed")
		}
		if strings.EqualFold(filepath.Ext(path), ".json") {
			return tarpit.SchemaFromJSON(b)
		}
		return tarpit.SchemaFromYAML(b)
	}

	if l.Viper != nil && l.Viper.IsSet("schema") {
		b, err := yaml.Marshal(l.Viper.Get("schema"))
		if err != nil {
			return tarpit.Schema{}, errors.Wrap(err, "encode schema section failed")
		}
		return tarpit.SchemaFromYAML(b)
	}

	return tarpit.DefaultSchema(), nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
