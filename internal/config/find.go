package config

import (
	"github.com/spf13/viper"
)

// FindConfig tunes similarity search over goal embeddings.
type FindConfig struct {
	// Limit caps how many matches a search returns.
	Limit int `mapstructure:"limit"`

	// MinSimilarity drops matches below this cosine similarity. Titles are
	// short, so scores run lower than document search would suggest.
	MinSimilarity float64 `mapstructure:"min_similarity"`

	// DuplicateThreshold is the similarity above which `add` warns that a
	// near-identical goal already exists.
	DuplicateThreshold float64 `mapstructure:"duplicate_threshold"`
}

// DefaultFindConfig returns the default search tuning.
func DefaultFindConfig() FindConfig {
	return FindConfig{
		Limit:              10,
		MinSimilarity:      0.30,
		DuplicateThreshold: 0.92,
	}
}

// LoadFindConfig loads search tuning from Viper. An explicit zero counts as
// a setting, not an absence.
func LoadFindConfig() FindConfig {
	d := DefaultFindConfig()
	viper.SetDefault("find.limit", d.Limit)
	viper.SetDefault("find.min_similarity", d.MinSimilarity)
	viper.SetDefault("find.duplicate_threshold", d.DuplicateThreshold)

	return FindConfig{
		Limit:              viper.GetInt("find.limit"),
		MinSimilarity:      viper.GetFloat64("find.min_similarity"),
		DuplicateThreshold: viper.GetFloat64("find.duplicate_threshold"),
	}
}
