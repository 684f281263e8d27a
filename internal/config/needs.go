package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
)

// needsProfile is the on-disk minimum needs document:
//
//	name: BNPB 7/2008
//	needs:
//	  - {name: Rice, unit: kg, quantity: 2.8, frequency: weekly}
type needsProfile struct {
	Name  string               `mapstructure:"name"`
	Needs []domain.MinimumNeed `mapstructure:"needs"`
}

// LoadNeedsProfile reads a minimum needs profile. The format follows the
// file extension (yaml, json or toml).
func LoadNeedsProfile(path string) ([]domain.MinimumNeed, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read needs profile: %w", err)
	}

	var profile needsProfile
	if err := v.Unmarshal(&profile); err != nil {
		return nil, fmt.Errorf("decode needs profile: %w", err)
	}
	if err := validateNeeds(profile.Needs); err != nil {
		return nil, fmt.Errorf("needs profile %q: %w", profile.Name, err)
	}
	return profile.Needs, nil
}

func validateNeeds(needs []domain.MinimumNeed) error {
	if len(needs) == 0 {
		return errors.New("no needs defined")
	}
	for i, n := range needs {
		switch {
		case n.Name == "":
			return fmt.Errorf("need %d: name is required", i)
		case n.Frequency == "":
			return fmt.Errorf("need %q: frequency is required", n.Name)
		case n.Quantity < 0:
			return fmt.Errorf("need %q: quantity must not be negative", n.Name)
		}
	}
	return nil
}
