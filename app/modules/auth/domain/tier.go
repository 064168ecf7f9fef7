package authdomain

// Tier is the governance tier a token holder votes with.
type Tier string

const (
	TierFounder  Tier = "founder"
	TierOrdinary Tier = "ordinary"
)

// IsValid checks if the tier is a valid value.
func (t Tier) IsValid() bool {
	switch t {
	case TierFounder, TierOrdinary:
		return true
	default:
		return false
	}
}

// String returns the string representation of the tier.
func (t Tier) String() string {
	return string(t)
}
