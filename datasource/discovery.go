package datasource

import (
	"strings"

	godi "github.com/a-peyrard/godi-datasource"
)

// DefaultPrefix is the configuration prefix under which datasources are declared.
const DefaultPrefix = "datasource"

// PropertySource is where datasources are discovered from, a *config.Config or a *viper.Viper.
type PropertySource = godi.PropertySource

// Discover groups the keys shaped as <prefix>.<name>.<property> by datasource name.
//
// The prefix is matched case-insensitively, names are lower-cased. A property may itself
// contain dots, "datasource.orders.dataSource.sslmode" gives the property "dataSource.sslmode"
// to the datasource "orders". Keys with nothing after the name are ignored.
func Discover(src PropertySource, prefix string) map[string]Properties {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	prefix = strings.ToLower(strings.TrimSuffix(prefix, ".")) + "."

	defs := make(map[string]Properties)
	for _, key := range src.AllKeys() {
		rest, found := cutPrefixFold(key, prefix)
		if !found {
			continue
		}
		name, property, found := strings.Cut(rest, ".")
		if !found || name == "" || property == "" {
			continue
		}
		name = strings.ToLower(name)
		if defs[name] == nil {
			defs[name] = make(Properties)
		}
		defs[name][property] = src.GetString(key)
	}
	return defs
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
