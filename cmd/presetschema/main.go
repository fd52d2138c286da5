package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/spyice/room-generator/internal/preset"
)

func main() {
	var outPath, kind string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema (empty for stdout)")
	flag.StringVar(&kind, "kind", "preset", "schema to emit: preset or index")
	flag.Parse()

	schema, err := buildSchema(kind)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := writeSchema(outPath, schema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema(kind string) (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{}

	switch kind {
	case "preset":
		schema := reflector.Reflect(new(preset.Preset))
		schema.Title = "Room Preset"
		schema.Description = "A group of room templates placed together, with the connections between them"
		return schema, nil
	case "index":
		schema := reflector.Reflect(new(preset.Index))
		schema.Title = "Preset Index"
		schema.Description = "Preset names available to each placement category"
		return schema, nil
	}
	return nil, fmt.Errorf("unknown schema kind %q", kind)
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	data = append(data, '\n')

	if outPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	return os.Rename(tmpPath, outPath)
}
