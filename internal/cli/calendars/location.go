package calendars

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/location"
)

// LocationParseCmd shows how addresses are read for state and city filters.
// Without arguments it reads every audition's location.
type LocationParseCmd struct {
	Addresses []string `arg:"" optional:"" help:"Addresses to parse."`
}

func (c *LocationParseCmd) Run(ctx *cli.Context) error {
	addrs := c.Addresses
	if len(addrs) == 0 {
		auditions, err := ctx.Store.ListAuditions(context.Background())
		if err != nil {
			return err
		}
		for _, a := range auditions {
			if strings.TrimSpace(a.Location) != "" {
				addrs = append(addrs, a.Location)
			}
		}
	}

	out := ctx.Out()
	if len(addrs) == 0 {
		fmt.Fprintln(out, "No addresses to parse.")
		return nil
	}

	for _, addr := range addrs {
		data, ok := location.Parse(addr)
		if !ok {
			fmt.Fprintf(out, "%s\n  unrecognized\n", addr)
			continue
		}
		city := data.City
		if city == "" {
			city = "?"
		}
		fmt.Fprintf(out, "%s\n  city=%s state=%s country=%s\n", addr, city, data.State, data.Country)
	}

	facets := location.CollectFacets(addrs)
	fmt.Fprintf(out, "\nStates: %s\n", joinOrNone(facets.States))
	fmt.Fprintf(out, "Cities: %s\n", joinOrNone(facets.Cities))
	return nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	return strings.Join(values, ", ")
}
