package quotes

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"
)

//go:embed catalog.yaml
var catalogYAML []byte

type fallbackQuote struct {
	Quote string `yaml:"quote"`
	Type  string `yaml:"type"`
}

type catalog struct {
	SystemPrompt string            `yaml:"system_prompt"`
	Prompts      map[string]string `yaml:"prompts"`
	GeneralFocus string            `yaml:"general_focus"`
	Fallbacks    []fallbackQuote   `yaml:"fallbacks"`
}

func loadCatalog(data []byte) (*catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("error parsing quote catalog: %w", err)
	}
	if c.SystemPrompt == "" || c.Prompts[TypeOther] == "" || len(c.Fallbacks) == 0 {
		return nil, fmt.Errorf("quote catalog is incomplete")
	}
	return &c, nil
}

var defaultCatalog = mustLoadCatalog()

func mustLoadCatalog() *catalog {
	c, err := loadCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Prompt returns the user prompt for a quote of the given type and
// category. Unknown types use the generic prompt.
func (c *catalog) Prompt(quoteType, category string) string {
	prompt, ok := c.Prompts[quoteType]
	if !ok {
		prompt = c.Prompts[TypeOther]
	}

	focus := category
	if category == "" || category == DefaultCategory {
		focus = c.GeneralFocus
	}
	return strings.ReplaceAll(prompt, "{{focus}}", focus)
}

// fallbacksFor returns the canned quotes of the given type, or all of them
// when none match.
func (c *catalog) fallbacksFor(quoteType string) []fallbackQuote {
	var matching []fallbackQuote
	for _, f := range c.Fallbacks {
		if f.Type == quoteType {
			matching = append(matching, f)
		}
	}
	if len(matching) == 0 {
		return c.Fallbacks
	}
	return matching
}
