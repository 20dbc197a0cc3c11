package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"realty_backoffice/errs"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const maxBodySize = 1 << 20

var compiledSchemas = mustCompileSchemas()

func mustCompileSchemas() map[string]*jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiled := make(map[string]*jsonschema.Schema)

	paths, err := fs.Glob(schemaFS, "schemas/*.json")
	if err != nil {
		log.Fatalf("list request schemas: %v", err)
	}

	for _, path := range paths {
		data, err := schemaFS.ReadFile(path)
		if err != nil {
			log.Fatalf("read schema %s: %v", path, err)
		}
		if err := compiler.AddResource(path, bytes.NewReader(data)); err != nil {
			log.Fatalf("failed to add schema resource %s: %v", path, err)
		}
	}

	for _, path := range paths {
		schema, err := compiler.Compile(path)
		if err != nil {
			log.Fatalf("compile schema %s: %v", path, err)
		}
		name := strings.TrimSuffix(strings.TrimPrefix(path, "schemas/"), ".json")
		compiled[name] = schema
	}
	return compiled
}

// decodeBody reads a JSON body, validates it against the named schema and decodes it into out.
func decodeBody(r *http.Request, schemaName string, out any) error {
	schema, ok := compiledSchemas[schemaName]
	if !ok {
		return fmt.Errorf("unknown schema %q", schemaName)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errs.InvalidInput("could not read request body")
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return errs.E(errs.KindInvalidInput, "request body is not valid JSON", err)
	}
	if err := schema.Validate(doc); err != nil {
		return errs.E(errs.KindInvalidInput, "request body failed validation", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errs.E(errs.KindInvalidInput, "request body has the wrong shape", err)
	}
	return nil
}
