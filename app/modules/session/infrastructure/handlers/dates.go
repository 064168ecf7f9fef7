package sessionhandlers

import (
	"strings"
	"time"

	sessiondomain "github.com/Black-And-White-Club/doubles-bot/app/modules/session/domain"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DateParser turns user supplied session dates into calendar days in the
// club time zone.
type DateParser struct {
	loc *time.Location
	w   *when.Parser
}

// NewDateParser creates a parser for the given club time zone.
func NewDateParser(loc *time.Location) *DateParser {
	if loc == nil {
		loc = time.UTC
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &DateParser{loc: loc, w: w}
}

// Parse accepts YYYY-MM-DD or an English expression such as "today" or
// "last monday". Empty input yields the zero time, which services treat as
// today.
func (p *DateParser) Parse(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return time.Time{}, nil
	}

	if t, err := time.ParseInLocation(time.DateOnly, input, p.loc); err == nil {
		return t, nil
	}

	r, err := p.w.Parse(input, now.In(p.loc))
	if err != nil {
		return time.Time{}, sessiondomain.NewInvalidInput("date", "could not parse %q: %v", input, err)
	}
	if r == nil {
		return time.Time{}, sessiondomain.NewInvalidInput("date", "could not recognize date %q", input)
	}
	return sessiondomain.DateOf(r.Time, p.loc), nil
}
