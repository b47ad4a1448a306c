package querydef

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/histq/internal/history"
)

// File is the decoded form of a query definition file.
type File struct {
	Name         string         `yaml:"name" json:"name"`
	Description  string         `yaml:"description,omitempty" json:"description,omitempty"`
	Result       string         `yaml:"result" json:"result"`
	Plan         string         `yaml:"plan,omitempty" json:"plan,omitempty"`
	ForeverAlive []string       `yaml:"forever_alive,omitempty" json:"forever_alive,omitempty"`
	From         any            `yaml:"from" json:"from"`
	Where        any            `yaml:"where,omitempty" json:"where,omitempty"`
	Args         map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// Definition is a query ready to be compiled by the history package.
type Definition struct {
	Name        string
	Description string
	Query       history.Query
	Args        map[string]any
}

// Load reads a query definition. The format is chosen by extension:
// .yaml and .yml are YAML, .cue is CUE.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query file: %w", err)
	}

	var def *Definition
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		def, err = ParseYAML(data)
	case ".cue":
		def, err = ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("unsupported query file extension %q (want .yaml, .yml or .cue)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}

// ParseYAML decodes a YAML query definition. Unknown fields are rejected.
func ParseYAML(data []byte) (*Definition, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return f.Definition()
}

// ParseCUE evaluates a CUE query definition. The value must be concrete.
// filename is used in error positions only.
func ParseCUE(data []byte, filename string) (*Definition, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("CUE value is not concrete: %w", err)
	}

	var f File
	if err := v.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode CUE: %w", err)
	}
	return f.Definition()
}

// Definition converts the raw file into sqlast trees.
func (f *File) Definition() (*Definition, error) {
	if f.Result == "" {
		return nil, fmt.Errorf("result: required field missing")
	}
	if f.From == nil {
		return nil, fmt.Errorf("from: required field missing")
	}
	plan := history.Plan(f.Plan)
	if plan != "" && !slices.Contains(history.ValidPlans, plan) {
		return nil, fmt.Errorf("plan: unknown plan %q (want one of %v)", f.Plan, history.ValidPlans)
	}

	from, err := parseTable(f.From)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}

	q := history.Query{
		Result: normalizeIdent(f.Result),
		From:   from,
		Plan:   plan,
	}
	if f.Where != nil {
		q.Where, err = parseExpr(f.Where)
		if err != nil {
			return nil, fmt.Errorf("where: %w", err)
		}
	}
	for _, alias := range f.ForeverAlive {
		q.ForeverAlive = append(q.ForeverAlive, normalizeIdent(alias))
	}

	args := make(map[string]any, len(f.Args))
	for name, raw := range f.Args {
		v, err := normalizeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("args.%s: %w", name, err)
		}
		args[normalizeIdent(name)] = v
	}

	return &Definition{
		Name:        f.Name,
		Description: f.Description,
		Query:       q,
		Args:        args,
	}, nil
}
