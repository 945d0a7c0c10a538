package policy

import (
	"fmt"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// CategoryPolicy is the configured policy for one sensitive-content
// category. Policy changes are data changes, never code changes.
type CategoryPolicy struct {
	// BlockThreshold is the score at or above which content is blocked.
	BlockThreshold int `mapstructure:"block_threshold"`
	// Weight scales classifier confidence into the 0-100 score space.
	Weight int `mapstructure:"weight"`
	// Priority ranks categories when several trigger at once; the
	// highest-priority category with a hotline supplies the resourceRef.
	Priority int `mapstructure:"priority"`
	// Reducible categories get the educational-context score reduction.
	Reducible bool   `mapstructure:"reducible"`
	Label     string `mapstructure:"label"`
	Message   string `mapstructure:"message"`
	// Hotline is the id of the crisis resource for this category, if any.
	Hotline string `mapstructure:"hotline"`
}

// Table maps categories to policies plus the hotline registry.
type Table struct {
	Categories map[string]CategoryPolicy `mapstructure:"categories"`
	Hotlines   map[string]string         `mapstructure:"hotlines"`
}

// Parse decodes a YAML policy document into a validated table.
func Parse(data []byte) (*Table, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unparsable policy document: %w", err)
	}

	var table Table
	if err := mapstructure.Decode(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to decode policy table: %w", err)
	}
	if err := table.validate(); err != nil {
		return nil, err
	}
	table.applyDefaults()
	return &table, nil
}

// LoadFile reads and parses a policy table from disk.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening policy file: %w", err)
	}
	return Parse(data)
}

func (t *Table) validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("policy table defines no categories")
	}
	for name, p := range t.Categories {
		if p.BlockThreshold < 0 || p.BlockThreshold > 100 {
			return fmt.Errorf("category %q: block_threshold %d outside [0,100]", name, p.BlockThreshold)
		}
		if p.Weight < 0 || p.Weight > 100 {
			return fmt.Errorf("category %q: weight %d outside [0,100]", name, p.Weight)
		}
		if p.Hotline != "" {
			if _, ok := t.Hotlines[p.Hotline]; !ok {
				return fmt.Errorf("category %q references unknown hotline %q", name, p.Hotline)
			}
		}
	}
	return nil
}

func (t *Table) applyDefaults() {
	for name, p := range t.Categories {
		if p.Weight == 0 {
			p.Weight = 100
		}
		if p.BlockThreshold == 0 {
			p.BlockThreshold = 80
		}
		if p.Label == "" {
			p.Label = name
		}
		t.Categories[name] = p
	}
}

// CategoryNames returns the configured category names, sorted.
func (t *Table) CategoryNames() []string {
	names := make([]string, 0, len(t.Categories))
	for name := range t.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Policy returns the policy for a category.
func (t *Table) Policy(category string) (CategoryPolicy, bool) {
	p, ok := t.Categories[category]
	return p, ok
}

// HotlineText resolves a hotline id to its display text.
func (t *Table) HotlineText(id string) string {
	return t.Hotlines[id]
}
