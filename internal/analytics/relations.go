package analytics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// relationConfig is the on-disk shape of the metric relationship table.
type relationConfig struct {
	Relations []metricRelation `yaml:"relations"`
}

type metricRelation struct {
	Metric  string   `yaml:"metric"`
	Related []string `yaml:"related"`
}

// RelationTable maps a primary health metric to the ordered set of metrics
// considered contextually relevant to it. Loaded once at process start and
// never mutated.
type RelationTable struct {
	relations map[string][]string
}

// LoadRelationTable reads and validates the relationship table from a YAML file.
func LoadRelationTable(path string) (*RelationTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read relation config %s: %w", path, err)
	}

	var config relationConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML for %s: %w", path, err)
	}

	relations := make(map[string][]string, len(config.Relations))
	for _, r := range config.Relations {
		if r.Metric == "" {
			return nil, fmt.Errorf("relation config %s: entry with empty metric name", path)
		}
		if _, exists := relations[r.Metric]; exists {
			return nil, fmt.Errorf("relation config %s: duplicate metric '%s'", path, r.Metric)
		}
		relations[r.Metric] = r.Related
	}

	return &RelationTable{relations: relations}, nil
}

// NewRelationTable builds a table directly from a map, for tests and defaults.
func NewRelationTable(relations map[string][]string) *RelationTable {
	copied := make(map[string][]string, len(relations))
	for k, v := range relations {
		copied[k] = append([]string(nil), v...)
	}
	return &RelationTable{relations: copied}
}

// RelatedMetrics returns the ordered related metrics for a primary metric.
// Unknown metrics yield an empty slice, never an error.
func (t *RelationTable) RelatedMetrics(primary string) []string {
	related, ok := t.relations[primary]
	if !ok {
		return nil
	}
	// Callers must not be able to mutate the table through the returned slice.
	return append([]string(nil), related...)
}
