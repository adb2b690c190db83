package plan

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk shape of a plan catalog.
type catalogFile struct {
	DefaultPlan string `yaml:"default_plan"`
	Plans       []Plan `yaml:"plans"`
}

// LoadYAMLCatalog reads a plan catalog from a YAML file. The file lists plans
// in order; grant order within a plan is preserved and drives the order of
// resolved entitlements.
func LoadYAMLCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return ParseYAMLCatalog(raw)
}

// ParseYAMLCatalog builds a Catalog from raw YAML bytes.
func ParseYAMLCatalog(raw []byte) (Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	plans := make(map[string]Plan, len(file.Plans))
	for _, p := range file.Plans {
		if _, dup := plans[p.ID]; dup {
			return nil, errors.Join(ErrInvalidPlan,
				fmt.Errorf("duplicate plan ID %q", p.ID))
		}
		plans[p.ID] = p
	}

	return NewMemoryCatalog(plans, file.DefaultPlan)
}
