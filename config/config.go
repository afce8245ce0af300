package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/a-peyrard/godi-datasource/fn"
	"github.com/a-peyrard/godi-datasource/option"
	"github.com/a-peyrard/godi-datasource/reflectutils"
	"github.com/a-peyrard/godi-datasource/str"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type (
	// Config represents a configuration instance backed by Viper
	Config struct {
		*viper.Viper
	}

	Options struct {
		prefix   string
		files    []string
		defaults map[string]any
		flags    *pflag.FlagSet
	}

	WithDefault interface {
		ApplyDefault()
	}
)

func WithEnvPrefix(prefix string) option.Option[Options] {
	return func(opts *Options) {
		opts.prefix = prefix
	}
}

// WithFile reads the given file, its format is deduced from the extension (yaml, toml, json, ...).
// Several files can be given, later files override earlier ones.
func WithFile(path string) option.Option[Options] {
	return func(opts *Options) {
		if path != "" {
			opts.files = append(opts.files, path)
		}
	}
}

func WithDefaults(defaults map[string]any) option.Option[Options] {
	return func(opts *Options) {
		if opts.defaults == nil {
			opts.defaults = make(map[string]any, len(defaults))
		}
		for k, v := range defaults {
			opts.defaults[k] = v
		}
	}
}

// WithFlags binds the flags of the set, a flag changed on the command line overrides every other source.
func WithFlags(flags *pflag.FlagSet) option.Option[Options] {
	return func(opts *Options) {
		opts.flags = flags
	}
}

// New builds a property source: defaults, then files, then environment, then flags.
//
// Every key can be overridden by an environment variable named after the key,
// upper-cased, with dots replaced by underscores and prefixed by the env prefix if any:
// with prefix APP, "datasource.orders.password" is read from APP_DATASOURCE_ORDERS_PASSWORD.
func New(opts ...option.Option[Options]) (*Config, error) {
	v, err := newViper(option.Build(&Options{}, opts...))
	if err != nil {
		return nil, err
	}
	return &Config{Viper: v}, nil
}

// Flatten returns every property under the given prefix as strings, keyed relatively to the prefix.
func (c *Config) Flatten(prefix string) map[string]string {
	prefix = strings.ToLower(strings.TrimSuffix(prefix, "."))
	out := make(map[string]string)
	for _, key := range c.AllKeys() {
		if prefix == "" {
			out[key] = c.GetString(key)
			continue
		}
		if rest, found := strings.CutPrefix(key, prefix+"."); found && rest != "" {
			out[rest] = c.GetString(key)
		}
	}
	return out
}

// SortedKeys returns all the known keys, sorted.
func (c *Config) SortedKeys() []string {
	keys := c.AllKeys()
	sort.Strings(keys)
	return keys
}

func Load[T any](opts ...option.Option[Options]) (*T, error) {
	options := option.Build(&Options{}, opts...)

	v, err := newViper(options)
	if err != nil {
		return nil, err
	}

	var vT T
	bindEnvs(v, options.prefix, reflect.New(reflect.TypeOf(vT)).Elem().Interface())

	if err := v.Unmarshal(&vT); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	withDefaultValueType := reflect.TypeOf((*WithDefault)(nil)).Elem()
	callApplyDefault := func(val reflect.Value, typ reflect.Type, _ []string) {
		if typ.Implements(withDefaultValueType) && val.IsValid() && !val.IsNil() {
			val.Interface().(WithDefault).ApplyDefault()
		}
	}
	reflectutils.WalkStruct(
		&vT,
		fn.AllTriConsumer(
			reflectutils.CreateNilStructs,
			callApplyDefault,
		),
	)

	return &vT, nil
}

func newViper(options *Options) (*viper.Viper, error) {
	v := viper.New()
	for key, value := range options.defaults {
		v.SetDefault(key, value)
	}

	for idx, file := range options.files {
		v.SetConfigFile(file)
		read := v.ReadInConfig
		if idx > 0 {
			read = v.MergeInConfig
		}
		if err := read(); err != nil {
			return nil, fmt.Errorf("unable to read config file %s:\n\t%w", file, err)
		}
	}

	v.SetEnvPrefix(options.prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if options.flags != nil {
		if err := v.BindPFlags(options.flags); err != nil {
			return nil, fmt.Errorf("unable to bind flags:\n\t%w", err)
		}
	}

	return v, nil
}

func bindEnvs(viperI *viper.Viper, envPrefix string, myStruct any, parts ...string) {
	ifv := reflect.ValueOf(myStruct)
	ift := reflect.TypeOf(myStruct)
	for i := 0; i < ift.NumField(); i++ {
		v := ifv.Field(i)
		t := ift.Field(i)
		if !t.IsExported() {
			continue
		}
		tv := reflectutils.KeyOf(t)
		switch v.Kind() {
		case reflect.Struct:
			bindEnvs(viperI, envPrefix, v.Interface(), append(parts, tv)...)
		case reflect.Pointer:
			if t.Type.Elem().Kind() == reflect.Struct {
				bindEnvs(viperI, envPrefix, reflect.Zero(t.Type.Elem()).Interface(), append(parts, tv)...)
			}
		default:
			key := strings.Join(append(parts, tv), ".")
			envParts := make([]string, 0, len(parts)+1)
			for _, p := range append(parts, tv) {
				envParts = append(envParts, str.ToScreamingSnakeCase(p))
			}
			_ = viperI.BindEnv(key, mergeWithEnvPrefix(envPrefix, strings.Join(envParts, "_")))
		}
	}
}

func mergeWithEnvPrefix(envPrefix string, in string) string {
	if envPrefix != "" {
		return strings.ToUpper(envPrefix + "_" + in)
	}

	return strings.ToUpper(in)
}
