package compiler

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/condevent/internal/ir"
)

//go:embed schema.cue
var schemaSource string

// LoadRuleset reads a ruleset file. The format is chosen by extension:
// .cue for CUE, .yaml/.yml/.json for YAML (JSON is accepted as YAML).
func LoadRuleset(path string) (*ir.Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return CompileRulesetCUE(data, path)
	case ".yaml", ".yml", ".json":
		return ParseRulesetYAML(data)
	default:
		return nil, &CompileError{
			Field:   "file",
			Message: fmt.Sprintf("unsupported ruleset extension %q (want .cue, .yaml, .yml or .json)", filepath.Ext(path)),
		}
	}
}

// CompileRulesetCUE unifies CUE source with the embedded #Ruleset schema,
// so unknown fields and invalid enum values are rejected with positions.
func CompileRulesetCUE(data []byte, filename string) (*ir.Ruleset, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("embedded schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileRuleset(schema.LookupPath(cue.ParsePath("#Ruleset")).Unify(v))
}

// CompileRuleset decodes an already schema-unified CUE value.
func CompileRuleset(v cue.Value) (*ir.Ruleset, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	js, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	// Exported JSON goes through the YAML decoder so both formats produce
	// the same param value types (int, float64, string, bool).
	return ParseRulesetYAML(js)
}

// ParseRulesetYAML decodes a YAML (or JSON) ruleset. Unknown fields are
// rejected.
func ParseRulesetYAML(data []byte) (*ir.Ruleset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var r ir.Ruleset
	if err := dec.Decode(&r); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CompileError{Field: "ruleset", Message: "empty ruleset"}
		}
		return nil, &CompileError{Field: "ruleset", Message: err.Error()}
	}
	return &r, nil
}
