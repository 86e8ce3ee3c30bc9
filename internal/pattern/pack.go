package pattern

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed pack-v1.schema.json
var packSchemaJSON []byte

// Pack is the JSON pattern-pack format, an alternative to the plain
// line-oriented pattern file. Validated against an embedded schema
// before any pattern is compiled.
type Pack struct {
	Version  int           `json:"version"`
	Name     string        `json:"name,omitempty"`
	Patterns []PackPattern `json:"patterns"`
}

// PackPattern is one entry in a pattern pack.
type PackPattern struct {
	Pattern string `json:"pattern"`
	Note    string `json:"note,omitempty"`
}

const packSchemaURL = "clipwarden/pattern-pack-v1.schema.json"

var packSchema = mustCompilePackSchema()

func mustCompilePackSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(packSchemaURL, bytes.NewReader(packSchemaJSON)); err != nil {
		panic(fmt.Sprintf("pattern: add pack schema: %v", err))
	}
	return c.MustCompile(packSchemaURL)
}

// LoadPack reads, schema-validates, and compiles a JSON pattern pack.
func LoadPack(path string) (*Store, []InvalidPattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return ParsePack(data)
}

// ParsePack validates and compiles pattern-pack JSON.
func ParsePack(data []byte) (*Store, []InvalidPattern, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if err := packSchema.Validate(instance); err != nil {
		return nil, nil, fmt.Errorf("pattern: pack schema validation: %w", err)
	}

	var pack Pack
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	lines := make([]string, 0, len(pack.Patterns))
	for _, p := range pack.Patterns {
		lines = append(lines, p.Pattern)
	}
	return Load(lines)
}
