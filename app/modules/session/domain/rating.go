package sessiondomain

// RatingMode selects how session satisfaction folds into a player's rating.
type RatingMode string

const (
	// RatingModeMean keeps a true running mean over every rated session.
	RatingModeMean RatingMode = "mean"
	// RatingModeLegacy halves toward each new score: cur==0 ? s : (cur+s)/2.
	// Recent sessions dominate and the result depends on order.
	RatingModeLegacy RatingMode = "legacy"
)

const (
	MinSatisfaction = 1
	MaxSatisfaction = 10
)

// ValidateSatisfaction checks the survey score range.
func ValidateSatisfaction(score int) error {
	if score < MinSatisfaction || score > MaxSatisfaction {
		return invalid("satisfaction", "score %d outside [%d,%d]", score, MinSatisfaction, MaxSatisfaction)
	}
	return nil
}

// UpdateRating folds one session score into a rating that has absorbed
// sessions ratings so far, returning the new rating and count.
func UpdateRating(mode RatingMode, current float64, sessions int, score int) (float64, int) {
	s := float64(score)
	if mode == RatingModeLegacy {
		if current == 0 {
			return s, sessions + 1
		}
		return (current + s) / 2, sessions + 1
	}
	if sessions <= 0 {
		return s, 1
	}
	return (current*float64(sessions) + s) / float64(sessions+1), sessions + 1
}
