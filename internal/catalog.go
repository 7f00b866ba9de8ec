package internal

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// PersonaDescriptor describes a selectable assistant persona
type PersonaDescriptor struct {
	ID                 string `json:"id" yaml:"id"`
	Label              string `json:"label" yaml:"label"`
	SystemPrompt       string `json:"system_prompt" yaml:"system_prompt"`
	ResponseLengthHint string `json:"response_length_hint,omitempty" yaml:"response_length_hint,omitempty"`
	// Custom personas take their prompt from the session; SystemPrompt is the fallback.
	Custom bool `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// ModelDescriptor describes a selectable completion model
type ModelDescriptor struct {
	ID               string `json:"id" yaml:"id"`
	Label            string `json:"label" yaml:"label"`
	MaxContextTokens int    `json:"max_context_tokens" yaml:"max_context_tokens"`
	Provider         string `json:"provider" yaml:"provider"`
}

// DisplayName returns the label shown in model pickers
func (m ModelDescriptor) DisplayName() string {
	if m.Provider == "" {
		return m.Label
	}
	return fmt.Sprintf("%s (%s)", m.Label, m.Provider)
}

// ordered keeps catalog entries in display order with keyed lookup
type ordered[T any] struct {
	items     []T
	byID      map[string]int
	defaultID string
}

func newOrdered[T any](kind string, items []T, key func(T) string, defaultID string) (ordered[T], error) {
	o := ordered[T]{items: slices.Clone(items), byID: make(map[string]int, len(items)), defaultID: defaultID}
	if len(items) == 0 {
		return o, fmt.Errorf("no %ss defined", kind)
	}
	for i, item := range items {
		id := key(item)
		if strings.TrimSpace(id) == "" {
			return o, fmt.Errorf("%s at position %d has no id", kind, i)
		}
		if _, dup := o.byID[id]; dup {
			return o, fmt.Errorf("duplicate %s id %q", kind, id)
		}
		o.byID[id] = i
	}
	if o.defaultID == "" {
		o.defaultID = key(items[0])
	}
	if _, ok := o.byID[o.defaultID]; !ok {
		return o, &IdentifierError{Kind: kind, ID: o.defaultID}
	}
	return o, nil
}

func (o ordered[T]) lookup(id string) (T, bool) {
	i, ok := o.byID[id]
	if !ok {
		var zero T
		return zero, false
	}
	return o.items[i], true
}

// PersonaCatalog is an immutable set of personas
type PersonaCatalog struct {
	ordered[PersonaDescriptor]
}

// NewPersonaCatalog validates personas and builds a catalog. An empty defaultID selects the first persona.
func NewPersonaCatalog(personas []PersonaDescriptor, defaultID string) (*PersonaCatalog, error) {
	for _, p := range personas {
		if !p.Custom && strings.TrimSpace(p.SystemPrompt) == "" {
			return nil, fmt.Errorf("persona %q has an empty system prompt", p.ID)
		}
	}
	o, err := newOrdered("persona", personas, func(p PersonaDescriptor) string { return p.ID }, defaultID)
	if err != nil {
		return nil, err
	}
	return &PersonaCatalog{o}, nil
}

// Lookup returns the persona with the given id
func (c *PersonaCatalog) Lookup(id string) (PersonaDescriptor, bool) { return c.lookup(id) }

// All returns personas in display order
func (c *PersonaCatalog) All() []PersonaDescriptor { return slices.Clone(c.items) }

// Default returns the persona new sessions start with
func (c *PersonaCatalog) Default() PersonaDescriptor {
	p, _ := c.lookup(c.defaultID)
	return p
}

func (c *PersonaCatalog) Len() int { return len(c.items) }

// ModelCatalog is an immutable set of models
type ModelCatalog struct {
	ordered[ModelDescriptor]
}

// NewModelCatalog validates models and builds a catalog. An empty defaultID selects the first model.
func NewModelCatalog(models []ModelDescriptor, defaultID string) (*ModelCatalog, error) {
	for _, m := range models {
		if m.MaxContextTokens <= 0 {
			return nil, fmt.Errorf("model %q: max_context_tokens must be positive, got %d", m.ID, m.MaxContextTokens)
		}
	}
	o, err := newOrdered("model", models, func(m ModelDescriptor) string { return m.ID }, defaultID)
	if err != nil {
		return nil, err
	}
	return &ModelCatalog{o}, nil
}

// Lookup returns the model with the given id
func (c *ModelCatalog) Lookup(id string) (ModelDescriptor, bool) { return c.lookup(id) }

// All returns models in display order
func (c *ModelCatalog) All() []ModelDescriptor { return slices.Clone(c.items) }

// Default returns the model new sessions start with
func (c *ModelCatalog) Default() ModelDescriptor {
	m, _ := c.lookup(c.defaultID)
	return m
}

func (c *ModelCatalog) Len() int { return len(c.items) }

// Catalog bundles the persona and model catalogs loaded from one source
type Catalog struct {
	Personas *PersonaCatalog
	Models   *ModelCatalog
	Source   string
}

// CatalogDefinition is the file layout of a catalog
type CatalogDefinition struct {
	DefaultPersona string              `yaml:"default_persona" json:"default_persona"`
	DefaultModel   string              `yaml:"default_model" json:"default_model"`
	Personas       []PersonaDescriptor `yaml:"personas" json:"personas"`
	Models         []ModelDescriptor   `yaml:"models" json:"models"`
}

// NewCatalog assembles a catalog from descriptor lists
func NewCatalog(source string, personas []PersonaDescriptor, models []ModelDescriptor, defaultPersona, defaultModel string) (*Catalog, error) {
	pc, err := NewPersonaCatalog(personas, defaultPersona)
	if err != nil {
		return nil, &CatalogError{Source: source, Op: "validate", Err: err}
	}
	mc, err := NewModelCatalog(models, defaultModel)
	if err != nil {
		return nil, &CatalogError{Source: source, Op: "validate", Err: err}
	}
	return &Catalog{Personas: pc, Models: mc, Source: source}, nil
}

// ParseCatalog decodes a YAML catalog definition
func ParseCatalog(data []byte, source string) (*Catalog, error) {
	var f CatalogDefinition
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &CatalogError{Source: source, Op: "parse", Err: err}
	}
	return NewCatalog(source, f.Personas, f.Models, f.DefaultPersona, f.DefaultModel)
}

// DefaultCatalog returns the catalog compiled into the binary
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(builtinCatalog, "builtin")
}

// LoadCatalog loads a catalog from a YAML file or SQLite database.
// An empty path returns the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return LoadCatalogFromDatabase(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &CatalogError{Source: path, Op: "read", Err: err}
	}
	cat, err := ParseCatalog(data, path)
	if err != nil {
		return nil, err
	}
	LogDebug("Loaded catalog from %s: %d personas, %d models", path, cat.Personas.Len(), cat.Models.Len())
	return cat, nil
}

// WithDefaults returns a copy of the catalog whose default persona and model are overridden.
// Empty ids keep the current defaults.
func (c *Catalog) WithDefaults(personaID, modelID string) (*Catalog, error) {
	if personaID == "" {
		personaID = c.Personas.defaultID
	}
	if modelID == "" {
		modelID = c.Models.defaultID
	}
	if _, ok := c.Personas.Lookup(personaID); !ok {
		return nil, &IdentifierError{Kind: "persona", ID: personaID}
	}
	if _, ok := c.Models.Lookup(modelID); !ok {
		return nil, &IdentifierError{Kind: "model", ID: modelID}
	}

	personas := *c.Personas
	personas.defaultID = personaID
	models := *c.Models
	models.defaultID = modelID
	return &Catalog{Personas: &personas, Models: &models, Source: c.Source}, nil
}

// Definition returns the catalog in its file layout, for dumping and seeding databases
func (c *Catalog) Definition() CatalogDefinition {
	return CatalogDefinition{
		DefaultPersona: c.Personas.defaultID,
		DefaultModel:   c.Models.defaultID,
		Personas:       c.Personas.All(),
		Models:         c.Models.All(),
	}
}

// MarshalYAML encodes the catalog in the same layout ParseCatalog reads
func (c *Catalog) MarshalYAML() (interface{}, error) {
	return c.Definition(), nil
}
