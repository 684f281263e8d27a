package domain

import (
	"fmt"
	"math"
)

// MinimumNeed is a per-person relief quantity delivered at a given frequency,
// e.g. 2.8 kg of rice weekly.
type MinimumNeed struct {
	Name      string  `json:"name" mapstructure:"name"`
	Unit      string  `json:"unit,omitempty" mapstructure:"unit"`
	Quantity  float64 `json:"quantity" mapstructure:"quantity"`
	Frequency string  `json:"frequency" mapstructure:"frequency"`
}

// TableName is the resource label used in reports, "Rice [kg]".
func (n MinimumNeed) TableName() string {
	if n.Unit == "" {
		return n.Name
	}
	return fmt.Sprintf("%s [%s]", n.Name, n.Unit)
}

// ResourceNeed is the total amount of one resource for the evacuated population.
type ResourceNeed struct {
	Name      string `json:"name"`
	Unit      string `json:"unit,omitempty"`
	TableName string `json:"table_name"`
	Amount    int64  `json:"amount"`
}

// NeedsGroup lists the resources delivered at one frequency.
type NeedsGroup struct {
	Frequency string         `json:"frequency"`
	Resources []ResourceNeed `json:"resources"`
}

// NeedsTable groups resource needs by frequency in order of first appearance.
type NeedsTable []NeedsGroup

// Group returns the resources for a frequency, or nil.
func (t NeedsTable) Group(frequency string) []ResourceNeed {
	for _, g := range t {
		if g.Frequency == frequency {
			return g.Resources
		}
	}
	return nil
}

// ComputeNeeds multiplies each per-person quantity by the evacuated count and
// rounds up so nobody is provisioned a fraction.
func ComputeNeeds(evacuated int64, needs []MinimumNeed) NeedsTable {
	table := NeedsTable{}
	index := make(map[string]int)

	for _, n := range needs {
		i, ok := index[n.Frequency]
		if !ok {
			i = len(table)
			index[n.Frequency] = i
			table = append(table, NeedsGroup{Frequency: n.Frequency})
		}
		table[i].Resources = append(table[i].Resources, ResourceNeed{
			Name:      n.Name,
			Unit:      n.Unit,
			TableName: n.TableName(),
			Amount:    NeedAmount(evacuated, n.Quantity),
		})
	}
	return table
}

// NeedAmount is ceil(evacuated * quantity). Products within 1e-9 relative of
// an integer snap to it, so 100 * 0.07 is 7 rather than 8.
func NeedAmount(evacuated int64, quantity float64) int64 {
	x := float64(evacuated) * quantity
	if r := math.Round(x); math.Abs(x-r) <= 1e-9*math.Max(1, math.Abs(x)) {
		return int64(r)
	}
	return int64(math.Ceil(x))
}

// DefaultMinimumNeeds returns the BNPB regulation 7/2008 relief profile.
func DefaultMinimumNeeds() []MinimumNeed {
	return []MinimumNeed{
		{Name: "Rice", Unit: "kg", Quantity: 2.8, Frequency: "weekly"},
		{Name: "Drinking Water", Unit: "l", Quantity: 17.5, Frequency: "weekly"},
		{Name: "Clean Water", Unit: "l", Quantity: 67, Frequency: "weekly"},
		{Name: "Family Kits", Quantity: 0.2, Frequency: "weekly"},
		{Name: "Toilets", Quantity: 0.05, Frequency: "single"},
	}
}
