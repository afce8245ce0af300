// Package poolconfig holds the configuration of a connection pool, read from the properties of a datasource.
//
// Property names follow the HikariCP ones (jdbcUrl, maximumPoolSize, idleTimeout, ...), their snake_case
// and kebab-case spellings are accepted too. Durations given as bare integers are milliseconds.
package poolconfig

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/a-peyrard/godi-datasource/datasource"
	"github.com/a-peyrard/godi-datasource/str"
	"github.com/spf13/cast"
)

type Kind string

const (
	// KindSQL opens a *sql.DB, through any registered database/sql driver.
	KindSQL Kind = "sql"
	// KindPGXPool opens a *pgxpool.Pool, postgres only.
	KindPGXPool Kind = "pgxpool"
)

const (
	DefaultMaximumPoolSize           = 10
	DefaultMaxLifetime               = 30 * time.Minute
	DefaultIdleTimeout               = 10 * time.Minute
	DefaultConnectionTimeout         = 30 * time.Second
	DefaultValidationTimeout         = 5 * time.Second
	DefaultInitializationFailTimeout = time.Millisecond

	minMaxLifetime   = 30 * time.Second
	minKeepaliveTime = 30 * time.Second
	minIdleTimeout   = 10 * time.Second
	softTimeoutFloor = 250 * time.Millisecond

	dataSourcePrefix = "dataSource"
)

var ErrInvalidConfig = errors.New("invalid pool configuration")

// Config is the configuration of one pool.
type Config struct {
	Name       string
	Kind       Kind
	URL        string
	DriverName string
	Username   string
	Password   string

	MaximumPoolSize int
	// MinimumIdle is the number of connections kept idle. Negative means "same as MaximumPoolSize".
	MinimumIdle int

	MaxLifetime time.Duration
	IdleTimeout time.Duration
	// ConnectionTimeout bounds the wait for a connection, zero means no deadline.
	ConnectionTimeout time.Duration
	ValidationTimeout time.Duration
	KeepaliveTime     time.Duration
	// InitializationFailTimeout drives the startup check: positive retries until it expires,
	// zero tries once and tolerates an unreachable database, negative skips the check.
	InitializationFailTimeout time.Duration

	ConnectionTestQuery string
	ConnectionInitSQL   string
	PoolName            string
	Schema              string
	ReadOnly            bool
	AutoCommit          bool
	// LogLevel is the pgx trace level of the pool connections, none disables tracing.
	LogLevel string

	// DataSourceProperties are given to the driver as is, they are the dataSource.* properties.
	DataSourceProperties map[string]string
	// Ignored lists the known properties that have no meaning for a Go pool.
	Ignored []string
}

type setter func(c *Config, value string) error

var (
	setters = map[string]setter{
		"kind": func(c *Config, v string) error {
			c.Kind = Kind(strings.ToLower(v))
			return nil
		},
		"jdbcurl":                   setString(func(c *Config) *string { return &c.URL }),
		"url":                       setString(func(c *Config) *string { return &c.URL }),
		"driverclassname":           setString(func(c *Config) *string { return &c.DriverName }),
		"drivername":                setString(func(c *Config) *string { return &c.DriverName }),
		"driver":                    setString(func(c *Config) *string { return &c.DriverName }),
		"username":                  setString(func(c *Config) *string { return &c.Username }),
		"user":                      setString(func(c *Config) *string { return &c.Username }),
		"password":                  setString(func(c *Config) *string { return &c.Password }),
		"maximumpoolsize":           setInt(func(c *Config) *int { return &c.MaximumPoolSize }),
		"maxpoolsize":               setInt(func(c *Config) *int { return &c.MaximumPoolSize }),
		"minimumidle":               setInt(func(c *Config) *int { return &c.MinimumIdle }),
		"minidle":                   setInt(func(c *Config) *int { return &c.MinimumIdle }),
		"maxlifetime":               setDuration(func(c *Config) *time.Duration { return &c.MaxLifetime }),
		"idletimeout":               setDuration(func(c *Config) *time.Duration { return &c.IdleTimeout }),
		"connectiontimeout":         setDuration(func(c *Config) *time.Duration { return &c.ConnectionTimeout }),
		"validationtimeout":         setDuration(func(c *Config) *time.Duration { return &c.ValidationTimeout }),
		"keepalivetime":             setDuration(func(c *Config) *time.Duration { return &c.KeepaliveTime }),
		"initializationfailtimeout": setDuration(func(c *Config) *time.Duration { return &c.InitializationFailTimeout }),
		"connectiontestquery":       setString(func(c *Config) *string { return &c.ConnectionTestQuery }),
		"connectioninitsql":         setString(func(c *Config) *string { return &c.ConnectionInitSQL }),
		"poolname":                  setString(func(c *Config) *string { return &c.PoolName }),
		"schema":                    setString(func(c *Config) *string { return &c.Schema }),
		"readonly":                  setBool(func(c *Config) *bool { return &c.ReadOnly }),
		"autocommit":                setBool(func(c *Config) *bool { return &c.AutoCommit }),
		"loglevel":                  setString(func(c *Config) *string { return &c.LogLevel }),
	}

	// properties of the JVM pool that have no equivalent here
	ignored = map[string]struct{}{
		"leakdetectionthreshold": {},
		"registermbeans":         {},
		"isolateinternalqueries": {},
		"allowpoolsuspension":    {},
		"catalog":                {},
		"transactionisolation":   {},
		"datasourceclassname":    {},
		"datasourcejndi":         {},
		"healthcheckregistry":    {},
		"metricregistry":         {},
	}
)

// Default returns the configuration used when no property is given.
func Default(name string) *Config {
	return &Config{
		Name:                      name,
		PoolName:                  name,
		Kind:                      KindSQL,
		MaximumPoolSize:           DefaultMaximumPoolSize,
		MinimumIdle:               -1,
		MaxLifetime:               DefaultMaxLifetime,
		IdleTimeout:               DefaultIdleTimeout,
		ConnectionTimeout:         DefaultConnectionTimeout,
		ValidationTimeout:         DefaultValidationTimeout,
		InitializationFailTimeout: DefaultInitializationFailTimeout,
		AutoCommit:                true,
		LogLevel:                  "none",
		DataSourceProperties:      make(map[string]string),
	}
}

// FromProperties reads the configuration of the named datasource. Unknown properties are errors.
func FromProperties(name string, props datasource.Properties) (*Config, error) {
	c := Default(name)

	var errs []error
	for _, key := range props.Keys() {
		value := props[key]
		if head, rest, found := strings.Cut(key, "."); found && str.Fold(head) == str.Fold(dataSourcePrefix) {
			if rest != "" {
				c.DataSourceProperties[rest] = value
			}
			continue
		}

		folded := str.Fold(key)
		if _, found := ignored[folded]; found {
			c.Ignored = append(c.Ignored, key)
			continue
		}
		set, found := setters[folded]
		if !found {
			errs = append(errs, fmt.Errorf("unknown property %q", key))
			continue
		}
		if err := set(c, strings.TrimSpace(value)); err != nil {
			errs = append(errs, fmt.Errorf("property %q: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w for datasource %s:\n\t%w", ErrInvalidConfig, name, errors.Join(errs...))
	}

	if c.PoolName == "" {
		c.PoolName = name
	}
	return c, nil
}

// Normalize applies the pool rules on the numeric settings, it returns a description of every adjustment.
func (c *Config) Normalize() []string {
	var adjustments []string
	adjust := func(format string, args ...any) {
		adjustments = append(adjustments, fmt.Sprintf(format, args...))
	}

	if c.MaxLifetime != 0 && c.MaxLifetime < minMaxLifetime {
		adjust("maxLifetime is less than %s, setting to default %s", minMaxLifetime, DefaultMaxLifetime)
		c.MaxLifetime = DefaultMaxLifetime
	}
	if c.KeepaliveTime != 0 && c.KeepaliveTime < minKeepaliveTime {
		adjust("keepaliveTime is less than %s, disabling it", minKeepaliveTime)
		c.KeepaliveTime = 0
	}
	if c.KeepaliveTime != 0 && c.MaxLifetime != 0 && c.KeepaliveTime >= c.MaxLifetime {
		adjust("keepaliveTime is greater than or equal to maxLifetime, disabling it")
		c.KeepaliveTime = 0
	}
	if c.ConnectionTimeout != 0 && c.ConnectionTimeout < softTimeoutFloor {
		adjust("connectionTimeout is less than %s, setting to default %s", softTimeoutFloor, DefaultConnectionTimeout)
		c.ConnectionTimeout = DefaultConnectionTimeout
	}
	if c.ValidationTimeout < softTimeoutFloor {
		adjust("validationTimeout is less than %s, setting to default %s", softTimeoutFloor, DefaultValidationTimeout)
		c.ValidationTimeout = DefaultValidationTimeout
	}
	if c.ConnectionTimeout > 0 && c.ValidationTimeout > c.ConnectionTimeout {
		adjust("validationTimeout is greater than connectionTimeout, setting it to %s", c.ConnectionTimeout)
		c.ValidationTimeout = c.ConnectionTimeout
	}
	if c.MaximumPoolSize < 1 {
		size := DefaultMaximumPoolSize
		if c.MinimumIdle > 0 {
			size = c.MinimumIdle
		}
		adjust("maximumPoolSize is less than 1, setting to %d", size)
		c.MaximumPoolSize = size
	}
	if c.MinimumIdle < 0 || c.MinimumIdle > c.MaximumPoolSize {
		c.MinimumIdle = c.MaximumPoolSize
	}
	switch {
	case c.IdleTimeout+time.Second > c.MaxLifetime && c.MaxLifetime > 0 && c.MinimumIdle < c.MaximumPoolSize:
		adjust("idleTimeout is close to or more than maxLifetime, disabling it")
		c.IdleTimeout = 0
	case c.IdleTimeout != 0 && c.IdleTimeout < minIdleTimeout && c.MinimumIdle < c.MaximumPoolSize:
		adjust("idleTimeout is less than %s, setting to default %s", minIdleTimeout, DefaultIdleTimeout)
		c.IdleTimeout = DefaultIdleTimeout
	case c.IdleTimeout != DefaultIdleTimeout && c.IdleTimeout != 0 && c.MinimumIdle == c.MaximumPoolSize:
		adjust("idleTimeout has been set but has no effect because the pool is operating as a fixed size pool")
	}
	return adjustments
}

// Validate checks that the pool can be opened with this configuration.
func (c *Config) Validate() error {
	var errs []error
	if c.URL == "" {
		errs = append(errs, errors.New("jdbcUrl (or url) is required"))
	}
	if c.MaximumPoolSize > math.MaxInt32 {
		errs = append(errs, fmt.Errorf("maximumPoolSize %d is greater than %d", c.MaximumPoolSize, math.MaxInt32))
	}
	if c.MinimumIdle > math.MaxInt32 {
		errs = append(errs, fmt.Errorf("minimumIdle %d is greater than %d", c.MinimumIdle, math.MaxInt32))
	}
	switch c.Kind {
	case KindSQL:
		if c.URL != "" && c.DriverName == "" && !c.IsPostgres() {
			errs = append(errs, errors.New("driverName is required for non postgres urls"))
		}
	case KindPGXPool:
		if c.URL != "" && !c.IsPostgres() {
			errs = append(errs, fmt.Errorf("kind %s requires a postgres url", KindPGXPool))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown kind %q, expected %s or %s", c.Kind, KindSQL, KindPGXPool))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w for datasource %s:\n\t%w", ErrInvalidConfig, c.Name, errors.Join(errs...))
	}
	return nil
}

// Driver returns the database/sql driver name to open the pool with.
func (c *Config) Driver() string {
	if c.DriverName != "" {
		switch strings.ToLower(c.DriverName) {
		case "org.postgresql.driver", "postgresql":
			return "postgres"
		}
		return c.DriverName
	}
	if c.IsPostgres() {
		return "postgres"
	}
	return ""
}

// IsPostgres tells whether the pool targets a postgres database, from its driver or from its url.
func (c *Config) IsPostgres() bool {
	switch strings.ToLower(c.DriverName) {
	case "postgres", "postgresql", "pgx", "pgx/v5", "org.postgresql.driver":
		return true
	case "":
	default:
		return false
	}
	url := strings.ToLower(c.URL)
	for _, prefix := range []string{"jdbc:postgresql:", "postgres://", "postgresql://"} {
		if strings.HasPrefix(url, prefix) {
			return true
		}
	}
	return isKeywordValue(c.URL) && strings.Contains(url, "host=")
}

// Summary returns the settings worth logging, without any credential.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"kind":              string(c.Kind),
		"url":               c.Redacted(),
		"maximumPoolSize":   c.MaximumPoolSize,
		"minimumIdle":       c.MinimumIdle,
		"maxLifetime":       c.MaxLifetime.String(),
		"idleTimeout":       c.IdleTimeout.String(),
		"connectionTimeout": c.ConnectionTimeout.String(),
		"dataSource":        sortedKeys(c.DataSourceProperties),
	}
}

func setString(field func(c *Config) *string) setter {
	return func(c *Config, value string) error {
		*field(c) = value
		return nil
	}
}

func setInt(field func(c *Config) *int) setter {
	return func(c *Config, value string) error {
		i, err := cast.ToIntE(value)
		if err != nil {
			return err
		}
		*field(c) = i
		return nil
	}
}

func setBool(field func(c *Config) *bool) setter {
	return func(c *Config, value string) error {
		b, err := cast.ToBoolE(value)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func setDuration(field func(c *Config) *time.Duration) setter {
	return func(c *Config, value string) error {
		d, err := ParseDuration(value)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

// ParseDuration reads a bare integer as milliseconds, anything else as a Go duration ("30s", "1m30s").
func ParseDuration(value string) (time.Duration, error) {
	if ms, err := cast.ToInt64E(value); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q, expected milliseconds or a duration like 30s", value)
	}
	return d, nil
}
