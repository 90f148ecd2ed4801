package chat

import (
	"encoding/json"
	"fmt"

	"github.com/aruna-wellness/backend/internal/llm"
	"github.com/xeipuuv/gojsonschema"
)

// Function names exposed to the model. The catalog is fixed; the model must
// choose from these four or return free text only.
const (
	fnProductSearch      = "getProductsForPurchase"
	fnPractitionerSearch = "getPractitionersForBooking"
	fnAnalyticsLookup    = "getAnalyticsData"
	fnScheduleLookup     = "getScheduleActivities"
)

// Parameter schemas serve double duty: they are sent to the model as the
// function-calling contract and compiled with gojsonschema to validate the
// argument bags the model sends back. Count bounds are enforced by clamping
// in the handlers, not here, so an out-of-range number is corrected rather
// than dropped.
const (
	productSearchSchema = `{
		"type": "object",
		"properties": {
			"keywords": {
				"type": "string",
				"description": "Search terms matched against product name, category and description"
			},
			"count": {
				"type": "number",
				"description": "How many products to suggest, between 1 and 3"
			}
		},
		"required": ["keywords"],
		"additionalProperties": false
	}`

	practitionerSearchSchema = `{
		"type": "object",
		"properties": {
			"keywords": {
				"type": "string",
				"description": "Search terms matched against practitioner name, specialization and bio"
			},
			"count": {
				"type": "number",
				"description": "How many practitioners to suggest, between 1 and 3"
			}
		},
		"required": ["keywords"],
		"additionalProperties": false
	}`

	analyticsLookupSchema = `{
		"type": "object",
		"properties": {
			"metric": {
				"type": "string",
				"description": "Health metric to analyze, e.g. sleep, heart-rate, steps"
			},
			"timeframe": {
				"type": "string",
				"description": "Period the user asked about, e.g. today, week, month"
			},
			"includeRelated": {
				"type": "boolean",
				"description": "Whether to include contextually related metrics for a holistic analysis"
			}
		},
		"required": ["metric", "timeframe"],
		"additionalProperties": false
	}`

	scheduleLookupSchema = `{
		"type": "object",
		"properties": {
			"timing": {
				"type": "string",
				"enum": ["next", "today", "remaining", "upcoming", "pending"],
				"description": "Which time window of the schedule the user asked about"
			},
			"category": {
				"type": "string",
				"enum": ["wellness", "fitness", "nutrition", "medical", "productivity", "lifestyle"],
				"description": "Optional activity category filter"
			}
		},
		"required": ["timing"],
		"additionalProperties": false
	}`
)

// CatalogEntry is one callable function: its model-facing definition plus the
// compiled schema used to validate returned arguments.
type CatalogEntry struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	schema      *gojsonschema.Schema
}

// Catalog is the fixed, process-wide set of functions the model may call.
// Immutable after construction.
type Catalog struct {
	entries []CatalogEntry
	byName  map[string]*CatalogEntry
}

// NewCatalog builds the four-entry catalog and compiles its schemas.
func NewCatalog() (*Catalog, error) {
	defs := []struct {
		name, description, schema string
	}{
		{
			name:        fnProductSearch,
			description: "Search the wellness shop for products the user wants to buy.",
			schema:      productSearchSchema,
		},
		{
			name:        fnPractitionerSearch,
			description: "Find wellness practitioners the user could book a consultation with.",
			schema:      practitionerSearchSchema,
		},
		{
			name:        fnAnalyticsLookup,
			description: "Fetch and analyze the user's health metric data.",
			schema:      analyticsLookupSchema,
		},
		{
			name:        fnScheduleLookup,
			description: "Look up activities on the user's daily schedule.",
			schema:      scheduleLookupSchema,
		},
	}

	catalog := &Catalog{byName: make(map[string]*CatalogEntry, len(defs))}
	for _, def := range defs {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(def.schema))
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema for %s: %w", def.name, err)
		}
		catalog.entries = append(catalog.entries, CatalogEntry{
			Name:        def.name,
			Description: def.description,
			Parameters:  json.RawMessage(def.schema),
			schema:      compiled,
		})
	}
	for i := range catalog.entries {
		catalog.byName[catalog.entries[i].Name] = &catalog.entries[i]
	}
	return catalog, nil
}

// Tools returns the catalog in the shape the chat-completions API expects.
func (c *Catalog) Tools() []llm.Tool {
	tools := make([]llm.Tool, 0, len(c.entries))
	for _, entry := range c.entries {
		tools = append(tools, llm.Tool{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        entry.Name,
				Description: entry.Description,
				Parameters:  entry.Parameters,
			},
		})
	}
	return tools
}

// Has reports whether name is a catalog function.
func (c *Catalog) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// ValidateArgs checks a model-supplied argument bag against the declared
// schema. The model's output is untrusted input.
func (c *Catalog) ValidateArgs(name string, args json.RawMessage) error {
	entry, ok := c.byName[name]
	if !ok {
		return fmt.Errorf("unknown function %q", name)
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	result, err := entry.schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return fmt.Errorf("arguments for %s are not valid JSON: %w", name, err)
	}
	if !result.Valid() {
		return fmt.Errorf("arguments for %s failed validation: %v", name, result.Errors())
	}
	return nil
}
