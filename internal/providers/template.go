package providers

import (
	"fmt"
	"strings"
)

// Template is a prompt string with named {placeholder} substitutions, the
// same `str.replace`/`str.format` style used for chunk_boundary_analysis and
// sensitivity_classification prompts.
type Template struct {
	name         string
	body         string
	placeholders []string
}

// NewTemplate validates that body contains every name in placeholders (each
// written as "{name}") and returns a bound Template. Loading fails fast on a
// missing placeholder rather than silently sending an unsubstituted prompt.
func NewTemplate(name, body string, placeholders []string) (*Template, error) {
	for _, p := range placeholders {
		if !strings.Contains(body, "{"+p+"}") {
			return nil, fmt.Errorf("providers: template %q missing declared placeholder {%s}", name, p)
		}
	}
	return &Template{name: name, body: body, placeholders: placeholders}, nil
}

// Render substitutes every declared placeholder and returns the final
// prompt text. Unknown keys in values are ignored; a declared placeholder
// with no supplied value is left unexpanded.
func (t *Template) Render(values map[string]string) string {
	out := t.body
	for _, p := range t.placeholders {
		v, ok := values[p]
		if !ok {
			continue
		}
		out = strings.ReplaceAll(out, "{"+p+"}", v)
	}
	return out
}

// TemplateSet is a named collection of prompt templates loaded from one
// functional stage's config block (e.g. the `prompts` map under `llm:`).
type TemplateSet struct {
	templates map[string]*Template
}

// LoadTemplateSet builds a TemplateSet from raw name->body entries, each
// validated against the placeholder names declared for it.
func LoadTemplateSet(raw map[string]string, placeholders map[string][]string) (*TemplateSet, error) {
	ts := &TemplateSet{templates: make(map[string]*Template, len(raw))}
	for name, body := range raw {
		tmpl, err := NewTemplate(name, body, placeholders[name])
		if err != nil {
			return nil, err
		}
		ts.templates[name] = tmpl
	}
	return ts, nil
}

// Get returns the named template, or an error if it was never loaded.
func (ts *TemplateSet) Get(name string) (*Template, error) {
	t, ok := ts.templates[name]
	if !ok {
		return nil, fmt.Errorf("providers: prompt template %q not configured", name)
	}
	return t, nil
}
