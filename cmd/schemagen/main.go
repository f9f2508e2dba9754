package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/invopop/jsonschema"

	"voxelflow.ai/internal/observerproto"
)

func main() {
	var outDir string
	flag.StringVar(&outDir, "out", "./schemas", "directory to write the JSON schemas into")
	flag.Parse()

	names, err := writeSchemas(outDir, observerproto.Schemas())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schemas: %v\n", err)
		os.Exit(1)
	}
	for _, n := range names {
		fmt.Println(n)
	}
}

// writeSchemas writes one <name>.schema.json per entry and returns the written paths in
// name order.
func writeSchemas(outDir string, schemas map[string]*jsonschema.Schema) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create schema directory: %w", err)
	}

	keys := make([]string, 0, len(schemas))
	for k := range schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		path := filepath.Join(outDir, k+".schema.json")
		if err := writeSchema(path, schemas[k]); err != nil {
			return out, fmt.Errorf("%s: %w", k, err)
		}
		out = append(out, path)
	}
	return out, nil
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
