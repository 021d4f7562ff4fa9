package scheduler

import (
	"fmt"
	"strings"

	"github.com/teambition/rrule-go"

	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/models"
	"github.com/julianstephens/callboard/internal/utils"
)

// ParseRecurrence validates an RRULE value such as "FREQ=WEEKLY;COUNT=6".
// A leading "RRULE:" is accepted. Rehearsals repeat at most daily, so
// HOURLY, MINUTELY and SECONDLY rules are rejected.
func ParseRecurrence(value string) (*rrule.RRule, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "RRULE:")
	if value == "" {
		return nil, fmt.Errorf("empty recurrence rule")
	}
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", value, err)
	}
	if opt.Freq > rrule.DAILY {
		return nil, fmt.Errorf("invalid recurrence rule %q: frequency %s is finer than daily", value, opt.Freq)
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence rule %q: %w", value, err)
	}
	return r, nil
}

// expandRecurrence returns the YYYY-MM-DD dates the rehearsal occurs on,
// starting at its own date and stopping at the horizon or the expansion cap.
func (g *Generator) expandRecurrence(r models.RehearsalEvent) ([]string, error) {
	rule, err := ParseRecurrence(r.Recurrence)
	if err != nil {
		return nil, err
	}

	first, err := utils.ParseDateInLocation(r.Date, g.loc)
	if err != nil {
		return nil, fmt.Errorf("invalid rehearsal date %q: %w", r.Date, err)
	}
	rule.DTStart(first)

	until := first.AddDate(0, 0, g.horizonDays)
	occurrences := rule.Between(first, until, true)
	if len(occurrences) > constants.MaxRecurrenceExpansions {
		g.logger.Warn("truncated rehearsal recurrence", "rehearsal", r.ID, "cap", constants.MaxRecurrenceExpansions)
		occurrences = occurrences[:constants.MaxRecurrenceExpansions]
	}

	dates := make([]string, 0, len(occurrences))
	for _, t := range occurrences {
		dates = append(dates, t.In(g.loc).Format(constants.DateFormat))
	}
	return dates, nil
}
