package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keyword is a phrase and the weight it adds when found in the text
type Keyword struct {
	Phrase string `yaml:"phrase"`
	Weight int    `yaml:"weight"`
}

// Keywords holds the scoring tables used by the classifier.
type Keywords struct {
	Fake            []Keyword `yaml:"fake"`
	Real            []Keyword `yaml:"real"`
	SourcingMarkers []string  `yaml:"sourcing_markers"`
}

// DefaultKeywords returns the built-in tables
func DefaultKeywords() Keywords {
	return Keywords{
		Fake: []Keyword{
			{"hoax", 3},
			{"conspiracy", 3},
			{"unverified", 2},
			{"shocking", 2},
			{"miracle cure", 4},
			{"secret", 2},
			{"breaking", 2},
			{"exposed", 2},
			{"they don't want you to know", 4},
			{"incredible", 1},
			{"amazing", 1},
		},
		Real: []Keyword{
			{"according to", 3},
			{"research shows", 4},
			{"official statement", 4},
			{"confirmed", 3},
			{"study", 3},
			{"experts", 2},
			{"published", 2},
			{"peer-reviewed", 4},
			{"data indicates", 3},
			{"report", 2},
		},
		SourcingMarkers: []string{"source:", "according to", "cited", "reference"},
	}
}

// LoadKeywords reads tables from a YAML file. Sections missing from the
// file keep their built-in values.
func LoadKeywords(path string) (Keywords, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("read keywords file: %w", err)
	}

	var fileKw Keywords
	if err := yaml.Unmarshal(raw, &fileKw); err != nil {
		return Keywords{}, fmt.Errorf("parse keywords file %s: %w", path, err)
	}

	kw := DefaultKeywords()
	if len(fileKw.Fake) > 0 {
		kw.Fake = fileKw.Fake
	}
	if len(fileKw.Real) > 0 {
		kw.Real = fileKw.Real
	}
	if len(fileKw.SourcingMarkers) > 0 {
		kw.SourcingMarkers = fileKw.SourcingMarkers
	}

	if err := kw.Validate(); err != nil {
		return Keywords{}, fmt.Errorf("keywords file %s: %w", path, err)
	}
	return kw, nil
}

// Validate rejects empty phrases and non-positive weights
func (k Keywords) Validate() error {
	for _, table := range [][]Keyword{k.Fake, k.Real} {
		for _, kw := range table {
			if kw.Phrase == "" {
				return fmt.Errorf("empty phrase")
			}
			if kw.Weight <= 0 {
				return fmt.Errorf("phrase %q: weight must be positive, got %d", kw.Phrase, kw.Weight)
			}
		}
	}
	return nil
}
