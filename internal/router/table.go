package router

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywords []byte

// Table is the declarative routing configuration.
type Table struct {
	Fallback Intent `yaml:"fallback"`
	Rules    []Rule `yaml:"rules"`
}

// DefaultTable parses the embedded keyword table.
func DefaultTable() Table {
	t, err := ParseTable(defaultKeywords)
	if err != nil {
		panic(fmt.Sprintf("embedded keywords.yaml: %v", err))
	}
	return t
}

// ParseTable decodes a YAML routing table. Unknown fields are rejected.
func ParseTable(data []byte) (Table, error) {
	var t Table
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return Table{}, fmt.Errorf("decode routing table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// LoadTable reads a routing table from path. An empty path yields the default table.
func LoadTable(path string) (Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read routing table: %w", err)
	}
	return ParseTable(data)
}

// Validate checks the table is usable by a Router.
func (t Table) Validate() error {
	if !t.Fallback.Valid() {
		return fmt.Errorf("invalid fallback intent %q", t.Fallback)
	}
	if len(t.Rules) == 0 {
		return errors.New("routing table has no rules")
	}

	seen := make(map[Intent]bool, len(t.Rules))
	for i, rule := range t.Rules {
		if !rule.Intent.Valid() {
			return fmt.Errorf("rule %d: invalid intent %q", i, rule.Intent)
		}
		if seen[rule.Intent] {
			return fmt.Errorf("rule %d: intent %q listed twice", i, rule.Intent)
		}
		seen[rule.Intent] = true
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("rule %d (%s): no keywords", i, rule.Intent)
		}
		if len(rule.Handlers) == 0 {
			return fmt.Errorf("rule %d (%s): no handlers", i, rule.Intent)
		}
		for _, kw := range rule.Keywords {
			if kw == "" {
				return fmt.Errorf("rule %d (%s): empty keyword", i, rule.Intent)
			}
		}
	}
	if !seen[t.Fallback] {
		return fmt.Errorf("fallback intent %q has no rule", t.Fallback)
	}
	return nil
}
