// Package source loads declarative rule definitions from files and byte
// buffers, and watches file sources for changes. Parsing is delegated to
// koanf providers and parsers; the extension (or an explicit format) picks
// between YAML and JSON, defaulting to YAML.
package source

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/nextpkg/vrule/ce"
)

// Source yields a raw rule-definition map.
type Source interface {
	Load() (map[string]any, error)
	String() string
}

// File reads a rule definition from a file, choosing the parser by
// extension.
type File struct {
	path     string
	provider *file.File
	parser   koanf.Parser
}

// NewFile creates a file source.
func NewFile(path string) *File {
	return &File{
		path:     path,
		provider: file.Provider(path),
		parser:   parserForFile(path),
	}
}

// Load reads and parses the file into a raw definition map.
func (f *File) Load() (map[string]any, error) {
	return load(f.provider, f.parser, f.String())
}

func (f *File) String() string {
	return "file:" + f.path
}

// Bytes parses an in-memory rule definition.
type Bytes struct {
	provider *rawbytes.RawBytes
	parser   koanf.Parser
	format   string
}

// NewBytes creates a byte-buffer source. Format is "yaml" or "json"; any
// other value falls back to YAML.
func NewBytes(data []byte, format string) *Bytes {
	return &Bytes{
		provider: rawbytes.Provider(data),
		parser:   parserForFormat(format),
		format:   format,
	}
}

// Load parses the buffer into a raw definition map.
func (b *Bytes) Load() (map[string]any, error) {
	return load(b.provider, b.parser, b.String())
}

func (b *Bytes) String() string {
	return "bytes:" + b.format
}

func load(provider koanf.Provider, parser koanf.Parser, name string) (map[string]any, error) {
	k := koanf.New(".")
	if err := k.Load(provider, parser); err != nil {
		return nil, fmt.Errorf("%w: %w from %s", ce.ErrLoadSourceFailed, err, name)
	}
	return k.Raw(), nil
}

// parserForFile returns the appropriate parser based on file extension.
func parserForFile(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Parser()
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return yaml.Parser()
	}
}

func parserForFormat(format string) koanf.Parser {
	switch strings.ToLower(format) {
	case "json":
		return json.Parser()
	default:
		return yaml.Parser()
	}
}
