package poolconfig

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

const redactedPassword = "xxxxx"

var keywordPassword = regexp.MustCompile(`(?i)(password\s*=\s*)('(?:[^'\\]|\\.)*'|\S+)`)

// DSN returns the connection string given to the driver.
//
// A jdbc:postgresql url becomes a postgres url. Credentials and dataSource.* properties are merged
// into the url, and for postgres the pool name, schema, read-only flag and connection timeout are
// turned into the matching connection parameters. Parameters already in the url win.
func (c *Config) DSN() string {
	return c.dsn(c.Password)
}

// Redacted returns the DSN with the password masked, for logs.
func (c *Config) Redacted() string {
	password := ""
	if c.Password != "" {
		password = redactedPassword
	}
	dsn := c.dsn(password)
	if isKeywordValue(dsn) {
		return keywordPassword.ReplaceAllString(dsn, "${1}"+redactedPassword)
	}
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		return u.Redacted()
	}
	return dsn
}

func (c *Config) dsn(password string) string {
	raw := strings.TrimSpace(c.URL)
	params := c.params()

	if isKeywordValue(raw) {
		return c.keywordValueDSN(raw, password, params)
	}

	if strings.HasPrefix(strings.ToLower(raw), "jdbc:") {
		raw = raw[len("jdbc:"):]
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		// opaque to us, the driver will report what is wrong with it
		return raw
	}
	if c.Username != "" {
		if password != "" {
			u.User = url.UserPassword(c.Username, password)
		} else {
			u.User = url.User(c.Username)
		}
	}
	query := u.Query()
	for _, key := range sortedKeys(params) {
		if !query.Has(key) {
			query.Set(key, params[key])
		}
	}
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Config) keywordValueDSN(raw, password string, params map[string]string) string {
	present := make(map[string]struct{})
	for _, field := range strings.Fields(raw) {
		if key, _, found := strings.Cut(field, "="); found {
			present[strings.ToLower(key)] = struct{}{}
		}
	}

	var b strings.Builder
	b.WriteString(raw)
	add := func(key, value string) {
		if _, found := present[key]; found {
			return
		}
		fmt.Fprintf(&b, " %s=%s", key, quote(value))
	}
	if c.Username != "" {
		add("user", c.Username)
	}
	if password != "" {
		add("password", password)
	}
	for _, key := range sortedKeys(params) {
		add(key, params[key])
	}
	return b.String()
}

func (c *Config) params() map[string]string {
	params := make(map[string]string, len(c.DataSourceProperties)+4)
	if c.IsPostgres() {
		if c.PoolName != "" {
			params["application_name"] = c.PoolName
		}
		if c.Schema != "" {
			params["search_path"] = c.Schema
		}
		if c.ReadOnly {
			params["default_transaction_read_only"] = "on"
		}
		if c.ConnectionTimeout > 0 {
			params["connect_timeout"] = fmt.Sprint(int(math.Ceil(c.ConnectionTimeout.Seconds())))
		}
	}
	for key, value := range c.DataSourceProperties {
		params[key] = value
	}
	return params
}

func isKeywordValue(dsn string) bool {
	return !strings.Contains(dsn, "://") && strings.Contains(dsn, "=")
}

func quote(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)
	return "'" + value + "'"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
