package report

import (
	"embed"
	"fmt"
)

//go:embed schema/*.json
var schemaFiles embed.FS

// Schema returns the JSON schema for the named output, "result" or "rewrite".
func Schema(name string) ([]byte, error) {
	data, err := schemaFiles.ReadFile("schema/" + name + ".schema.json")
	if err != nil {
		return nil, fmt.Errorf("%w: no schema for %q", ErrUnknownFormat, name)
	}
	return data, nil
}
