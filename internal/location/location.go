// Package location pulls city and state tokens out of free-text US addresses
// such as "123 Main St, Springfield, IL 62701". It is a heuristic for
// filtering listings, not a postal address parser: anything it cannot read
// comes back with ok == false.
package location

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/julianstephens/callboard/internal/models"
)

var (
	stateWithZip   = regexp.MustCompile(`,\s*([A-Z]{2})\s+\d{5}(?:-\d{4})?\b`)
	stateAlone     = regexp.MustCompile(`,\s*([A-Z]{2})\s*(?:,|$)`)
	stateSegment   = regexp.MustCompile(`^[A-Z]{2}(?:\s+\d{5})?`)
	leadingNumber  = regexp.MustCompile(`^\d+[A-Za-z]?\s+`)
	countryAliases = map[string]string{
		"US":            "US",
		"USA":           "US",
		"U.S.A.":        "US",
		"UNITED STATES": "US",
	}
)

// ExtractState returns the two-letter state code. A code followed by a ZIP
// wins over a bare code.
func ExtractState(addr string) (string, bool) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", false
	}
	if m := stateWithZip.FindStringSubmatch(addr); m != nil {
		return m[1], true
	}
	if m := stateAlone.FindStringSubmatch(addr); m != nil {
		return m[1], true
	}
	return "", false
}

// ExtractCity returns the segment just before the first state-like segment,
// minus any leading street number.
func ExtractCity(addr string) (string, bool) {
	segments := splitSegments(addr)
	for i := 1; i < len(segments); i++ {
		if !stateSegment.MatchString(segments[i]) {
			continue
		}
		city := leadingNumber.ReplaceAllString(segments[i-1], "")
		city = strings.TrimSpace(city)
		if !hasLetter(city) {
			return "", false
		}
		return city, true
	}
	return "", false
}

// Parse builds LocationData from an address. ok is false when no state could
// be found.
func Parse(addr string) (models.LocationData, bool) {
	addr = strings.TrimSpace(addr)
	data := models.LocationData{FormattedAddress: addr}

	state, ok := ExtractState(addr)
	if !ok {
		return data, false
	}
	data.State = state
	if city, ok := ExtractCity(addr); ok {
		data.City = city
	}

	segments := splitSegments(addr)
	if n := len(segments); n > 1 {
		if country, ok := countryAliases[strings.ToUpper(segments[n-1])]; ok {
			data.Country = country
		}
	}
	if data.Country == "" {
		data.Country = "US"
	}
	return data, true
}

// MatchesState reports whether addr is in the given state, ignoring case
func MatchesState(addr, state string) bool {
	got, ok := ExtractState(addr)
	return ok && strings.EqualFold(got, strings.TrimSpace(state))
}

// Facets are the distinct states and cities found in a set of addresses
type Facets struct {
	States []string `json:"states"`
	Cities []string `json:"cities"`
}

// CollectFacets gathers sorted, distinct states and cities. Addresses that
// cannot be read are skipped.
func CollectFacets(addrs []string) Facets {
	states := make(map[string]struct{})
	cities := make(map[string]struct{})
	for _, addr := range addrs {
		if s, ok := ExtractState(addr); ok {
			states[s] = struct{}{}
		}
		if c, ok := ExtractCity(addr); ok {
			cities[c] = struct{}{}
		}
	}
	return Facets{States: sortedKeys(states), Cities: sortedKeys(cities)}
}

func splitSegments(addr string) []string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	parts := strings.Split(addr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
