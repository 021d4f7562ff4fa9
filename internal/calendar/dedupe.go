package calendar

import "github.com/julianstephens/callboard/internal/models"

// Deduplicate keeps the first event for every identity key and drops the
// rest, preserving the order of first occurrences. Events sharing a key are
// assumed identical, so later copies reached through another role are lost
// rather than merged.
func Deduplicate(events []models.Event) []models.Event {
	seen := make(map[string]struct{}, len(events))
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		key := e.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
