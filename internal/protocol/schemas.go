package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var schemaFiles = map[string]string{
	TypeHello:          "hello.schema.json",
	TypeTeleport:       "teleport.schema.json",
	TypeActivate:       "activate.schema.json",
	TypeSort:           "sort.schema.json",
	TypeBreak:          "break.schema.json",
	TypeEdit:           "edit.schema.json",
	TypeCooldowns:      "cooldowns.schema.json",
	TypeKnownWaystones: "known_waystones.schema.json",
	TypeTeleportResult: "teleport_result.schema.json",
}

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	for _, name := range schemaFiles {
		b, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			schemasErr = err
			return
		}
		if err := c.AddResource(name, bytes.NewReader(b)); err != nil {
			schemasErr = fmt.Errorf("%s: %w", name, err)
			return
		}
	}
	out := make(map[string]*jsonschema.Schema, len(schemaFiles))
	for typ, name := range schemaFiles {
		s, err := c.Compile(name)
		if err != nil {
			schemasErr = fmt.Errorf("%s: %w", name, err)
			return
		}
		out[typ] = s
	}
	schemas = out
}

// Validate checks raw against the schema for msgType. Types without a schema
// pass.
func Validate(msgType string, raw []byte) error {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return schemasErr
	}
	s, ok := schemas[msgType]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

// HasSchema reports whether msgType is schema-checked.
func HasSchema(msgType string) bool {
	_, ok := schemaFiles[msgType]
	return ok
}
