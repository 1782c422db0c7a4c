package pricing

// TierID identifies a duration bracket.
type TierID int

const (
	Tier1 TierID = iota + 1
	Tier2
	Tier3
	Tier4
	Tier5
	Tier6
)

// MinBookableHours is enforced by the quote boundary before the calculator runs.
const MinBookableHours = 6

// Tier is one duration bracket of the rate card.
type Tier struct {
	ID               TierID
	MinHours         int
	MaxHours         int // inclusive; 0 means unbounded
	PriceAdjustment  float64
	InsuranceDivisor float64
	ConvenienceAddOn int64
}

// TierTable is an immutable rate card ordered by ascending MinHours.
// It is loaded once at startup and passed by value into the calculator.
type TierTable struct {
	tiers []Tier
}

// DefaultTierTable returns the production rate card.
func DefaultTierTable() TierTable {
	return TierTable{tiers: []Tier{
		{ID: Tier1, MinHours: MinBookableHours, MaxHours: 11, PriceAdjustment: 1.00, InsuranceDivisor: 9.4, ConvenienceAddOn: 0},
		{ID: Tier2, MinHours: 12, MaxHours: 23, PriceAdjustment: 0.50, InsuranceDivisor: 8.5, ConvenienceAddOn: 50},
		{ID: Tier3, MinHours: 24, MaxHours: 71, PriceAdjustment: 0.00, InsuranceDivisor: 7.7, ConvenienceAddOn: 100},
		{ID: Tier4, MinHours: 72, MaxHours: 167, PriceAdjustment: -0.10, InsuranceDivisor: 7.0, ConvenienceAddOn: 150},
		{ID: Tier5, MinHours: 168, MaxHours: 335, PriceAdjustment: -0.20, InsuranceDivisor: 6.5, ConvenienceAddOn: 200},
		{ID: Tier6, MinHours: 336, MaxHours: 0, PriceAdjustment: -0.30, InsuranceDivisor: 6.0, ConvenienceAddOn: 250},
	}}
}

// Select returns the tier with the largest MinHours not exceeding hours.
func (t TierTable) Select(hours int) (Tier, bool) {
	for i := len(t.tiers) - 1; i >= 0; i-- {
		if hours >= t.tiers[i].MinHours {
			return t.tiers[i], true
		}
	}
	return Tier{}, false
}

// Tiers returns a copy of the rate card entries.
func (t TierTable) Tiers() []Tier {
	return append([]Tier(nil), t.tiers...)
}
