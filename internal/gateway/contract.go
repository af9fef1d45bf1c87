package gateway

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed analysis_schema.json
var analysisSchema []byte

var (
	contractOnce   sync.Once
	contractSchema *jsonschema.Schema
	contractErr    error
)

func compiledContract() (*jsonschema.Schema, error) {
	contractOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("analysis.json", bytes.NewReader(analysisSchema)); err != nil {
			contractErr = fmt.Errorf("failed to load analysis schema: %w", err)
			return
		}
		contractSchema, contractErr = compiler.Compile("analysis.json")
		if contractErr != nil {
			contractErr = fmt.Errorf("failed to compile analysis schema: %w", contractErr)
		}
	})
	return contractSchema, contractErr
}

// checkContract reports whether body has the expected analysis result shape.
// A mismatch is informational; the normalizer tolerates any shape.
func checkContract(body []byte) error {
	schema, err := compiledContract()
	if err != nil {
		return err
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("failed to decode analysis response: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("analysis response does not match schema: %w", err)
	}
	return nil
}
