package tradein

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fields.yaml
var fieldsYAML []byte

type Field struct {
	Key      string   `yaml:"key"`
	Label    string   `yaml:"label"`
	Required bool     `yaml:"required"`
	Type     string   `yaml:"type"`
	Options  []string `yaml:"options"`
}

// InputType is the HTML input type for text-like fields.
func (f Field) InputType() string {
	if f.Type == "number" {
		return "number"
	}
	return "text"
}

func (f Field) IsSelect() bool {
	return f.Type == "select"
}

type ProductType struct {
	Key    string  `yaml:"key"`
	Label  string  `yaml:"label"`
	Fields []Field `yaml:"fields"`
}

type Category struct {
	Key          string        `yaml:"key"`
	Label        string        `yaml:"label"`
	ProductTypes []ProductType `yaml:"productTypes"`
}

// Table maps categories to product types and product types to the
// specification fields the wizard asks for.
type Table struct {
	Categories []Category `yaml:"categories"`
}

// LoadTable parses the built-in field table.
func LoadTable() (*Table, error) {
	return ParseTable(fieldsYAML)
}

func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse trade-in table: %w", err)
	}
	for _, c := range t.Categories {
		if c.Key == "" || len(c.ProductTypes) == 0 {
			return nil, fmt.Errorf("trade-in category %q has no product types", c.Label)
		}
	}
	return &t, nil
}

func (t *Table) Category(key string) (*Category, bool) {
	for i := range t.Categories {
		if t.Categories[i].Key == key {
			return &t.Categories[i], true
		}
	}
	return nil, false
}

func (c *Category) ProductType(key string) (*ProductType, bool) {
	for i := range c.ProductTypes {
		if c.ProductTypes[i].Key == key {
			return &c.ProductTypes[i], true
		}
	}
	return nil, false
}
