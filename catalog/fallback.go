package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"storefront-service/models"
)

//go:embed fallback.yaml
var fallbackYAML []byte

type fallbackFile struct {
	Categories []models.Category `yaml:"categories"`
}

var staticCategories = mustLoadFallback()

func mustLoadFallback() []models.Category {
	var f fallbackFile
	if err := yaml.Unmarshal(fallbackYAML, &f); err != nil {
		panic(fmt.Sprintf("catalog: invalid fallback.yaml: %v", err))
	}
	return f.Categories
}

// StaticCategories returns a copy of the built-in category list.
func StaticCategories() []models.Category {
	return append([]models.Category(nil), staticCategories...)
}
