package vrule

import (
	"math"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/nextpkg/vrule/source"
)

// defaultIgnorePrefix marks definition keys callers may use for their own
// metadata. Such keys are accepted and dropped instead of failing
// construction.
const defaultIgnorePrefix = "x-"

// Option adjusts how declarative definitions are interpreted.
type Option func(*loadOptions)

type loadOptions struct {
	ignorePrefix string
}

// WithIgnorePrefix overrides the naming convention for keys that are
// silently dropped during map construction. The default is "x-".
func WithIgnorePrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.ignorePrefix = prefix
	}
}

func applyOptions(opts []Option) loadOptions {
	o := loadOptions{ignorePrefix: defaultIgnorePrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FromMap builds a RuleSet from an untyped definition map, the declarative
// counterpart of Compile. Every entry is shape-checked; a key that names no
// constraint fails construction unless it carries the ignore prefix, so a
// typo never silently becomes a no-op.
func FromMap(m map[string]any, opts ...Option) (*RuleSet, error) {
	o := applyOptions(opts)

	var (
		def Definition
		md  mapstructure.Metadata
	)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &def,
		Metadata:   &md,
		DecodeHook: integralNumberHook(),
	})
	if err != nil {
		return nil, NewParseError("map", "failed to build definition decoder", err)
	}

	if err := dec.Decode(m); err != nil {
		return nil, NewShapeError("", "definition entries must match their declared shapes", err)
	}

	for _, key := range md.Unused {
		if strings.HasPrefix(key, o.ignorePrefix) {
			continue
		}
		return nil, NewUnknownKeyError(key)
	}

	return Compile(def)
}

// integralNumberHook rejects fractional numbers heading into integer fields,
// which plain decoding would silently truncate.
func integralNumberHook() mapstructure.DecodeHookFunc {
	return mapstructure.DecodeHookFuncKind(func(from, to reflect.Kind, data any) (any, error) {
		if to != reflect.Int {
			return data, nil
		}
		switch from {
		case reflect.Float32, reflect.Float64:
			n := cast.ToFloat64(data)
			if n != math.Trunc(n) {
				return nil, NewShapeError("", "expected an integer", nil)
			}
		}
		return data, nil
	})
}

// LoadFile builds a RuleSet from a YAML or JSON definition file; the parser
// is chosen by extension.
func LoadFile(path string, opts ...Option) (*RuleSet, error) {
	return fromSource(source.NewFile(path), opts...)
}

// MustLoadFile is LoadFile panicking on error.
func MustLoadFile(path string, opts ...Option) *RuleSet {
	rs, err := LoadFile(path, opts...)
	if err != nil {
		panic(err)
	}
	return rs
}

// LoadBytes builds a RuleSet from an in-memory definition in the given
// format ("yaml" or "json").
func LoadBytes(data []byte, format string, opts ...Option) (*RuleSet, error) {
	return fromSource(source.NewBytes(data, format), opts...)
}

func fromSource(src source.Source, opts ...Option) (*RuleSet, error) {
	m, err := src.Load()
	if err != nil {
		return nil, NewLoadError(src.String(), "failed to read rule definition", err)
	}
	return FromMap(m, opts...)
}

// FromViper builds a RuleSet from a subtree of an existing viper instance,
// for applications that already manage their configuration with viper and
// embed rule definitions in it. An empty key uses the whole instance.
func FromViper(v *viper.Viper, key string, opts ...Option) (*RuleSet, error) {
	if v == nil {
		return nil, NewLoadError("viper", "nil viper instance", nil)
	}

	m := v.AllSettings()
	if key != "" {
		sub := v.Sub(key)
		if sub == nil {
			return nil, NewLoadError("viper", "key "+key+" holds no definition map", nil)
		}
		m = sub.AllSettings()
	}

	return FromMap(m, opts...)
}
