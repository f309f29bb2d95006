package helix

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/arloliu/helix/optionfile"
	"github.com/arloliu/helix/types"
)

// Connection defaults applied by NewConfig and normalize.
const (
	defaultHost           = "127.0.0.1"
	defaultPort           = 3306
	defaultTimezone       = "UTC"
	defaultConnectTimeout = 60 * time.Second
	defaultCharset        = "utf8mb4"
	defaultOptionsGroup   = "client"
	defaultMaxIdleConns   = 2
)

// Config holds the connection parameters for a Connector.
//
// Create it with NewConfig and override fields as needed; NewConfig sets
// the documented defaults, including the boolean fields that default to
// true. A zero Config literal works but starts with Buffered and
// GetWarnings off.
type Config struct {
	// Host is the server host. Defaults to "127.0.0.1".
	Host string

	// Port is the server port. Defaults to 3306.
	Port int

	// User is the account name. Required.
	User string

	// Password is the account password. Never written to logs.
	Password string

	// Database is the schema to select. May be empty.
	Database string

	// Timezone is the session time zone applied on every open and used
	// to decode temporal columns. Accepts an IANA name ("UTC",
	// "Europe/London"), an offset ("+05:30"), or "SYSTEM" for the
	// host's local zone. Defaults to "UTC".
	Timezone string

	// ConnectTimeout bounds dialing a new connection. Defaults to 60s.
	ConnectTimeout time.Duration

	// ReadTimeout bounds individual reads on the wire. Zero means the
	// driver default (no timeout).
	ReadTimeout time.Duration

	// WriteTimeout bounds individual writes on the wire. Zero means the
	// driver default (no timeout).
	WriteTimeout time.Duration

	// Charset is the connection character set. Defaults to "utf8mb4".
	Charset string

	// Buffered makes reads drain the full result set before returning.
	// NewConfig sets it to true.
	Buffered bool

	// GetWarnings fetches SHOW WARNINGS after each statement and
	// attaches the result. NewConfig sets it to true.
	GetWarnings bool

	// RaiseOnWarnings escalates server warnings to a WarningError.
	// Implies warning collection regardless of GetWarnings.
	RaiseOnWarnings bool

	// InterpolateParams switches the driver to client-side parameter
	// interpolation instead of server-side prepared statements.
	InterpolateParams bool

	// OptionsFile is the path of a MySQL option file to merge in.
	// Empty disables option-file loading.
	OptionsFile string

	// OptionsGroup is the option-file section to read.
	// Defaults to "client".
	OptionsGroup string

	// MaxOpenConns caps the pool size. Zero means unlimited.
	MaxOpenConns int

	// MaxIdleConns is the pool's idle connection target. Defaults to 2.
	MaxIdleConns int

	// ConnMaxLifetime recycles connections older than this. Zero keeps
	// them indefinitely.
	ConnMaxLifetime time.Duration

	// ConnMaxIdleTime closes connections idle longer than this. Zero
	// keeps them indefinitely.
	ConnMaxIdleTime time.Duration
}

// NewConfig returns a Config with the documented defaults.
//
// Returns:
//   - *Config: Configuration with default settings
func NewConfig() *Config {
	return &Config{
		Host:           defaultHost,
		Port:           defaultPort,
		Timezone:       defaultTimezone,
		ConnectTimeout: defaultConnectTimeout,
		Charset:        defaultCharset,
		Buffered:       true,
		GetWarnings:    true,
		OptionsGroup:   defaultOptionsGroup,
		MaxIdleConns:   defaultMaxIdleConns,
	}
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Addr returns the host:port the config points at.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// normalize fills unset fields with their defaults.
func (c *Config) normalize() {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.Charset == "" {
		c.Charset = defaultCharset
	}
	if c.OptionsGroup == "" {
		c.OptionsGroup = defaultOptionsGroup
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
}

// applyOptionsFile merges the configured option file into the config.
//
// Precedence: explicitly set literal fields win over file values, file
// values win over defaults. A literal field and a file key that disagree
// is a configuration error rather than a silent pick; ambiguous intent
// should fail loudly. Fields still at their default are treated as unset.
func (c *Config) applyOptionsFile() error {
	if c.OptionsFile == "" {
		return nil
	}

	group := c.OptionsGroup
	if group == "" {
		group = defaultOptionsGroup
	}

	opts, err := optionfile.Load(c.OptionsFile, group)
	if err != nil {
		return err
	}

	if opts.Has(optionfile.KeyHost) {
		if c.Host != "" && c.Host != defaultHost && c.Host != opts.Host {
			return conflictError(optionfile.KeyHost, c.Host, opts.Host)
		}
		c.Host = opts.Host
	}
	if opts.Has(optionfile.KeyPort) {
		if c.Port != 0 && c.Port != defaultPort && c.Port != opts.Port {
			return conflictError(optionfile.KeyPort, strconv.Itoa(c.Port), strconv.Itoa(opts.Port))
		}
		c.Port = opts.Port
	}
	if opts.Has(optionfile.KeyUser) {
		if c.User != "" && c.User != opts.User {
			return conflictError(optionfile.KeyUser, c.User, opts.User)
		}
		c.User = opts.User
	}
	if opts.Has(optionfile.KeyPassword) {
		if c.Password != "" && c.Password != opts.Password {
			return &types.ConfigError{Key: optionfile.KeyPassword, Reason: "set to different values in config and options file"}
		}
		c.Password = opts.Password
	}
	if opts.Has(optionfile.KeyDatabase) {
		if c.Database != "" && c.Database != opts.Database {
			return conflictError(optionfile.KeyDatabase, c.Database, opts.Database)
		}
		c.Database = opts.Database
	}
	if opts.Has(optionfile.KeyConnectTimeout) {
		if c.ConnectTimeout != 0 && c.ConnectTimeout != defaultConnectTimeout && c.ConnectTimeout != opts.ConnectTimeout {
			return conflictError(optionfile.KeyConnectTimeout, c.ConnectTimeout.String(), opts.ConnectTimeout.String())
		}
		c.ConnectTimeout = opts.ConnectTimeout
	}
	if opts.Has(optionfile.KeyCharset) {
		if c.Charset != "" && c.Charset != defaultCharset && c.Charset != opts.Charset {
			return conflictError(optionfile.KeyCharset, c.Charset, opts.Charset)
		}
		c.Charset = opts.Charset
	}

	return nil
}

func conflictError(key, literal, file string) error {
	return &types.ConfigError{
		Key:    key,
		Reason: "set to " + literal + " in config but " + file + " in options file",
	}
}

// Validate checks the config for use. Call after normalize and any
// option-file merge.
//
// Returns:
//   - error: *types.ConfigError describing the first problem found, or nil
func (c *Config) Validate() error {
	if c.Host == "" {
		return &types.ConfigError{Key: "host", Reason: "cannot be empty"}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &types.ConfigError{Key: "port", Reason: "must be between 1 and 65535"}
	}
	if c.User == "" {
		return &types.ConfigError{Key: "user", Reason: "cannot be empty"}
	}
	if _, err := c.Location(); err != nil {
		return &types.ConfigError{Key: "timezone", Reason: "unknown time zone " + c.Timezone, Err: err}
	}
	if c.ConnectTimeout < 0 {
		return &types.ConfigError{Key: "connect-timeout", Reason: "cannot be negative"}
	}
	if c.ReadTimeout < 0 {
		return &types.ConfigError{Key: "read-timeout", Reason: "cannot be negative"}
	}
	if c.WriteTimeout < 0 {
		return &types.ConfigError{Key: "write-timeout", Reason: "cannot be negative"}
	}

	return nil
}

// Location resolves the configured time zone to a *time.Location.
//
// Returns:
//   - *time.Location: The zone temporal columns decode in
//   - error: When the zone name is not resolvable
func (c *Config) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	if strings.EqualFold(tz, "SYSTEM") {
		return time.Local, nil
	}
	if offset, ok := parseZoneOffset(tz); ok {
		return time.FixedZone(tz, offset), nil
	}

	return time.LoadLocation(tz)
}

// parseZoneOffset parses MySQL offset zones of the form "+HH:MM" or
// "-HH:MM" into seconds east of UTC.
func parseZoneOffset(tz string) (int, bool) {
	if len(tz) != 6 || (tz[0] != '+' && tz[0] != '-') || tz[3] != ':' {
		return 0, false
	}

	hours, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.Atoi(tz[4:6])
	if err != nil || mins > 59 {
		return 0, false
	}

	offset := hours*3600 + mins*60
	if tz[0] == '-' {
		offset = -offset
	}

	return offset, true
}

// FormatDSN builds the driver DSN from the config.
//
// The DSN always carries parseTime=true and the configured zone so
// temporal columns decode to time.Time values in that zone, and never
// enables multi-statement execution.
//
// Returns:
//   - string: DSN for sql.Open("mysql", ...)
//   - error: When the time zone cannot be resolved
func (c *Config) FormatDSN() (string, error) {
	loc, err := c.Location()
	if err != nil {
		return "", &types.ConfigError{Key: "timezone", Reason: "unknown time zone " + c.Timezone, Err: err}
	}

	driverCfg := mysql.NewConfig()
	driverCfg.User = c.User
	driverCfg.Passwd = c.Password
	driverCfg.Net = "tcp"
	driverCfg.Addr = c.Addr()
	driverCfg.DBName = c.Database
	driverCfg.Loc = loc
	driverCfg.ParseTime = true
	driverCfg.InterpolateParams = c.InterpolateParams
	driverCfg.MultiStatements = false
	driverCfg.Timeout = c.ConnectTimeout
	driverCfg.ReadTimeout = c.ReadTimeout
	driverCfg.WriteTimeout = c.WriteTimeout
	driverCfg.Params = map[string]string{
		"charset": c.Charset,
	}

	return driverCfg.FormatDSN(), nil
}

// Redacted returns the config as logger key/value pairs with the
// password masked.
func (c *Config) Redacted() []any {
	password := ""
	if c.Password != "" {
		password = "****"
	}

	return []any{
		"host", c.Host,
		"port", c.Port,
		"user", c.User,
		"password", password,
		"database", c.Database,
		"timezone", c.Timezone,
		"connect_timeout", c.ConnectTimeout.String(),
		"buffered", c.Buffered,
		"get_warnings", c.GetWarnings,
		"raise_on_warnings", c.RaiseOnWarnings,
		"interpolate_params", c.InterpolateParams,
	}
}
