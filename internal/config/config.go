// Package config binds command-line flags, CHORIFY_* environment variables
// and an optional config file into a Config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "CHORIFY"

type Config struct {
	HTTPBindAddress string
	DBPath          string
	LogLevel        string
	LogFormat       string
	TokenSecret     string
	TokenTTL        time.Duration
	StaticDir       string
	AllowedOrigins  []string

	Backup BackupConfig
}

// BackupConfig points the backup subcommands at an S3-compatible bucket.
type BackupConfig struct {
	Endpoint   string
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Prefix     string
	Passphrase string
}

// Opt is a single command-line option.
type Opt struct {
	DestP   any // pointer to the destination
	Flag    string
	Default any
	Desc    string
}

// GlobalOpts are shared by every subcommand.
func (c *Config) GlobalOpts() []Opt {
	return []Opt{
		{&c.DBPath, "db-path", "chorify.db", "path to the SQLite database file"},
		{&c.LogLevel, "log-level", "info", "log level: debug, info, warn or error"},
		{&c.LogFormat, "log-format", "text", "log format: text or json"},
	}
}

// ServeOpts configure the HTTP server.
func (c *Config) ServeOpts() []Opt {
	return []Opt{
		{&c.HTTPBindAddress, "http-bind-address", ":8080", "address the HTTP API listens on"},
		{&c.TokenSecret, "token-secret", "", "HMAC secret for signing API tokens; random per process when empty"},
		{&c.TokenTTL, "token-ttl", 14 * 24 * time.Hour, "lifetime of issued API tokens"},
		{&c.StaticDir, "static-dir", "", "directory of the web client served for unmatched GET requests"},
		{&c.AllowedOrigins, "allowed-origins", []string(nil), "host patterns allowed to open cross-origin websocket connections"},
	}
}

// BackupOpts configure the backup subcommands.
func (c *Config) BackupOpts() []Opt {
	b := &c.Backup
	return []Opt{
		{&b.Endpoint, "backup-s3-endpoint", "", "S3-compatible endpoint URL; empty for AWS"},
		{&b.Bucket, "backup-s3-bucket", "", "bucket that stores database backups"},
		{&b.Region, "backup-s3-region", "us-east-1", "bucket region"},
		{&b.AccessKey, "backup-s3-access-key", "", "S3 access key id"},
		{&b.SecretKey, "backup-s3-secret-key", "", "S3 secret access key"},
		{&b.Prefix, "backup-s3-prefix", "chorify/", "object key prefix for backups"},
		{&b.Passphrase, "backup-passphrase", "", "passphrase backups are encrypted with"},
	}
}

// NewViper returns a viper instance reading CHORIFY_* environment variables,
// with "-" in flag names mapped to "_".
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	return v
}

// ReadFile merges a YAML, TOML or JSON config file into v. Keys use the
// flag names.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// BindOptions registers opts on flags and with v.
func BindOptions(v *viper.Viper, flags *pflag.FlagSet, opts []Opt) {
	for _, o := range opts {
		switch destP := o.DestP.(type) {
		case *string:
			var d string
			if o.Default != nil {
				d = o.Default.(string)
			}
			flags.StringVar(destP, o.Flag, d, o.Desc)
		case *bool:
			var d bool
			if o.Default != nil {
				d = o.Default.(bool)
			}
			flags.BoolVar(destP, o.Flag, d, o.Desc)
		case *time.Duration:
			var d time.Duration
			if o.Default != nil {
				d = o.Default.(time.Duration)
			}
			flags.DurationVar(destP, o.Flag, d, o.Desc)
		case *[]string:
			var d []string
			if o.Default != nil {
				d = o.Default.([]string)
			}
			flags.StringSliceVar(destP, o.Flag, d, o.Desc)
		default:
			panic(fmt.Errorf("unknown destination type %T", o.DestP))
		}
		if err := v.BindPFlag(o.Flag, flags.Lookup(o.Flag)); err != nil {
			panic(err)
		}
	}
}

// Apply copies the resolved values into the option destinations. Precedence
// is flag, then environment, then config file, then default.
func Apply(v *viper.Viper, opts []Opt) {
	for _, o := range opts {
		switch destP := o.DestP.(type) {
		case *string:
			*destP = v.GetString(o.Flag)
		case *bool:
			*destP = v.GetBool(o.Flag)
		case *time.Duration:
			*destP = v.GetDuration(o.Flag)
		case *[]string:
			*destP = v.GetStringSlice(o.Flag)
		}
	}
}

// Validate checks values that flags alone cannot constrain.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log-format %q: want text or json", c.LogFormat)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("invalid token-ttl %s: must be positive", c.TokenTTL)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db-path is required")
	}
	return nil
}

// ValidateBackup checks the options every backup subcommand needs.
func (c *Config) ValidateBackup() error {
	if c.Backup.Bucket == "" {
		return fmt.Errorf("backup-s3-bucket is required")
	}
	if c.Backup.AccessKey == "" || c.Backup.SecretKey == "" {
		return fmt.Errorf("backup-s3-access-key and backup-s3-secret-key are required")
	}
	return nil
}
