package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalidTable reports a table document that does not match its schema.
var ErrInvalidTable = errors.New("catalog: invalid table")

// table binds a YAML document name to the Go type it decodes into.
type table struct {
	name  string
	title string
	proto func() any
}

var tables = []table{
	{name: "classes", title: "Hero classes", proto: func() any { return new(ClassTable) }},
	{name: "archetypes", title: "Monster archetypes", proto: func() any { return new(ArchetypeTable) }},
	{name: "items", title: "Market and blacksmith items", proto: func() any { return new(ItemTable) }},
	{name: "skills", title: "Hero skills", proto: func() any { return new(SkillTable) }},
	{name: "waves", title: "Wave schedule", proto: func() any { return new(WaveTable) }},
	{name: "buildings", title: "Building types", proto: func() any { return new(BuildingTable) }},
}

// TableNames lists the table documents in load order.
func TableNames() []string {
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.name
	}
	return names
}

func lookupTable(name string) (table, bool) {
	for _, t := range tables {
		if t.name == name {
			return t, true
		}
	}
	return table{}, false
}

// Schema reflects the JSON schema of the named table.
func Schema(name string) (*invopop.Schema, error) {
	t, ok := lookupTable(name)
	if !ok {
		return nil, fmt.Errorf("catalog: unknown table %q", name)
	}
	reflector := invopop.Reflector{AllowAdditionalProperties: false}
	schema := reflector.Reflect(t.proto())
	schema.Title = t.title
	schema.Description = fmt.Sprintf("Designer table %s.yaml", t.name)
	return schema, nil
}

type compiledSchemas struct {
	once    sync.Once
	schemas map[string]*jsonschema.Schema
	err     error
}

var compiled compiledSchemas

func validators() (map[string]*jsonschema.Schema, error) {
	compiled.once.Do(func() {
		out := make(map[string]*jsonschema.Schema, len(tables))
		compiler := jsonschema.NewCompiler()
		for _, t := range tables {
			schema, err := Schema(t.name)
			if err != nil {
				compiled.err = err
				return
			}
			data, err := json.Marshal(schema)
			if err != nil {
				compiled.err = fmt.Errorf("catalog: marshal %s schema: %w", t.name, err)
				return
			}
			url := "mem://catalog/" + t.name + ".schema.json"
			if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
				compiled.err = fmt.Errorf("catalog: add %s schema: %w", t.name, err)
				return
			}
			s, err := compiler.Compile(url)
			if err != nil {
				compiled.err = fmt.Errorf("catalog: compile %s schema: %w", t.name, err)
				return
			}
			out[t.name] = s
		}
		compiled.schemas = out
	})
	return compiled.schemas, compiled.err
}

// validate checks a YAML document against the schema of the named table. The
// document is re-encoded as JSON so numbers reach the validator as
// json.Number values.
func validate(name string, doc []byte) error {
	schemas, err := validators()
	if err != nil {
		return err
	}
	schema, ok := schemas[name]
	if !ok {
		return fmt.Errorf("catalog: unknown table %q", name)
	}

	var raw any
	if err := yaml.Unmarshal(doc, &raw); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTable, name, err)
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTable, name, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTable, name, err)
	}
	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTable, name, err)
	}
	return nil
}
