package datasource

import (
	"sort"
	"strings"

	"github.com/a-peyrard/godi-datasource/str"
	"github.com/samber/lo"
)

// Properties are the raw configuration properties of one datasource, keyed relatively to the datasource.
type Properties map[string]string

// Lookup finds a property ignoring case and '_' or '-' separators,
// so "maximumPoolSize" finds "maximum_pool_size" or "maximumpoolsize".
//
// When several spellings are present, the last one in Keys order wins.
func (p Properties) Lookup(key string) (value string, found bool) {
	folded := str.Fold(key)
	for _, k := range p.Keys() {
		if str.Fold(k) == folded {
			value, found = p[k], true
		}
	}
	return value, found
}

// Sub returns the properties under the given prefix, keyed relatively to it.
//
// The prefix is matched like Lookup does, the remaining part of the keys is kept as is.
func (p Properties) Sub(prefix string) Properties {
	segments := strings.Split(str.Fold(strings.TrimSuffix(prefix, ".")), ".")
	out := make(Properties)
	for k, value := range p {
		tokens := strings.SplitN(k, ".", len(segments)+1)
		if len(tokens) != len(segments)+1 || tokens[len(segments)] == "" {
			continue
		}
		matches := true
		for i, segment := range segments {
			if str.Fold(tokens[i]) != segment {
				matches = false
				break
			}
		}
		if matches {
			out[tokens[len(segments)]] = value
		}
	}
	return out
}

// Keys returns the property keys, sorted.
func (p Properties) Keys() []string {
	keys := lo.Keys(p)
	sort.Strings(keys)
	return keys
}

// Merge returns a copy of p overridden by the given properties.
// An override replaces the existing keys it matches, whatever their spelling.
func (p Properties) Merge(overrides Properties) Properties {
	out := make(Properties, len(p)+len(overrides))
	for k, value := range p {
		shadowed := lo.SomeBy(lo.Keys(overrides), func(o string) bool {
			return str.Fold(o) == str.Fold(k)
		})
		if !shadowed {
			out[k] = value
		}
	}
	return lo.Assign(out, overrides)
}
