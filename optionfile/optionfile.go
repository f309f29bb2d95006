// Package optionfile reads MySQL option files.
//
// An option file is the standard INI-style file the mysql client tools
// read (my.cnf, .my.cnf, .mylogin.cnf without encryption). Only the keys
// relevant to establishing a connection are recognized; everything else
// in the file is ignored. Both dash and underscore spellings are
// accepted, matching mysql client behavior.
package optionfile

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/arloliu/helix/types"
)

// Recognized option-file keys, dash spelling.
const (
	KeyHost           = "host"
	KeyPort           = "port"
	KeyUser           = "user"
	KeyPassword       = "password"
	KeyDatabase       = "database"
	KeyConnectTimeout = "connect-timeout"
	KeyCharset        = "default-character-set"
)

// Options holds the recognized keys of one option-file group.
//
// Only keys present in the file are meaningful; use Has to distinguish
// "set to the zero value" from "absent".
type Options struct {
	// Host is the server host.
	Host string

	// Port is the server port.
	Port int

	// User is the account name.
	User string

	// Password is the account password.
	Password string

	// Database is the schema to select.
	Database string

	// ConnectTimeout is the dial timeout, from connect-timeout seconds.
	ConnectTimeout time.Duration

	// Charset is the connection character set, from default-character-set.
	Charset string

	keys map[string]struct{}
}

// Has reports whether the file set the given key (dash spelling).
func (o *Options) Has(key string) bool {
	_, ok := o.keys[key]
	return ok
}

// Keys returns the keys the file set, sorted, for logging.
func (o *Options) Keys() []string {
	keys := make([]string, 0, len(o.keys))
	for k := range o.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Load reads the named group from a MySQL option file.
//
// Parameters:
//   - path: Option file path
//   - group: Section to read, usually "client"
//
// Returns:
//   - *Options: The recognized keys the group sets
//   - error: *types.ConfigError when the file cannot be read, the group
//     is missing, or a value cannot be parsed
func Load(path, group string) (*Options, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys: true,
	}, path)
	if err != nil {
		return nil, &types.ConfigError{Key: "options-file", Reason: "cannot read " + path, Err: err}
	}

	section, err := file.GetSection(group)
	if err != nil {
		return nil, &types.ConfigError{Key: "options-file", Reason: "missing [" + group + "] group in " + path}
	}

	opts := &Options{keys: make(map[string]struct{})}

	if v, ok := lookup(section, KeyHost); ok {
		opts.Host = v
		opts.keys[KeyHost] = struct{}{}
	}
	if v, ok := lookup(section, KeyPort); ok {
		port, err := parsePort(v)
		if err != nil {
			return nil, &types.ConfigError{Key: "options-file", Reason: "invalid port " + v + " in " + path, Err: err}
		}
		opts.Port = port
		opts.keys[KeyPort] = struct{}{}
	}
	if v, ok := lookup(section, KeyUser); ok {
		opts.User = v
		opts.keys[KeyUser] = struct{}{}
	}
	if v, ok := lookup(section, KeyPassword); ok {
		opts.Password = v
		opts.keys[KeyPassword] = struct{}{}
	}
	if v, ok := lookup(section, KeyDatabase); ok {
		opts.Database = v
		opts.keys[KeyDatabase] = struct{}{}
	}
	if v, ok := lookup(section, KeyConnectTimeout); ok {
		secs, err := parseSeconds(v)
		if err != nil {
			return nil, &types.ConfigError{Key: "options-file", Reason: "invalid connect-timeout " + v + " in " + path, Err: err}
		}
		opts.ConnectTimeout = secs
		opts.keys[KeyConnectTimeout] = struct{}{}
	}
	if v, ok := lookup(section, KeyCharset); ok {
		opts.Charset = v
		opts.keys[KeyCharset] = struct{}{}
	}

	return opts, nil
}

// lookup finds a key under its dash or underscore spelling.
func lookup(section *ini.Section, key string) (string, bool) {
	if section.HasKey(key) {
		return section.Key(key).String(), true
	}

	underscored := strings.ReplaceAll(key, "-", "_")
	if underscored != key && section.HasKey(underscored) {
		return section.Key(underscored).String(), true
	}

	return "", false
}

// parsePort parses a port number and checks its range.
func parsePort(v string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if port < 1 || port > 65535 {
		return 0, errors.New("port out of range")
	}

	return port, nil
}

// parseSeconds parses a whole-second timeout value.
func parseSeconds(v string) (time.Duration, error) {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, err
	}
	if secs < 0 {
		return 0, errors.New("timeout cannot be negative")
	}

	return time.Duration(secs) * time.Second, nil
}
