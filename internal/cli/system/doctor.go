package system

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/julianstephens/callboard/internal/backup"
	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/slots"
	"github.com/julianstephens/callboard/internal/storage/sqlite"
	"github.com/julianstephens/callboard/internal/utils"
)

type DoctorCmd struct{}

type schemaStatuser interface {
	SchemaStatus() (current, latest int, err error)
}

type check struct {
	name string
	// needsDB checks are skipped when the database cannot be loaded
	needsDB bool
	// warnOnly failures do not fail the run
	warnOnly bool
	run      func(ctx *cli.Context) error
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Slot capacity", needsDB: true, run: checkSlotCapacity},
	{name: "Audition dates", needsDB: true, run: checkAuditionDates},
	{name: "Clock/timezone", run: checkClockTimezone},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	out := ctx.Out()
	fmt.Fprintln(out, "Running diagnostics...")
	fmt.Fprintln(out)

	hasError := false
	dbReachable := false

	if err := checkDBReachable(ctx); err != nil {
		fail(out, "Database reachable", err)
		hasError = true
	} else {
		fmt.Fprintf(out, "✓ Database reachable: OK\n")
		dbReachable = true
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Fprintf(out, "⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			fmt.Fprintf(out, "✓ %s: OK\n", c.name)
		case c.warnOnly:
			fmt.Fprintf(out, "⚠ %s: WARNING\n", c.name)
			fmt.Fprintf(out, "   %v\n", err)
		default:
			fail(out, c.name, err)
			hasError = true
		}
	}

	fmt.Fprintln(out)
	if hasError {
		fmt.Fprintln(out, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Fprintln(out, "All diagnostics passed!")
	return nil
}

func fail(out io.Writer, name string, err error) {
	fmt.Fprintf(out, "❌ %s: FAIL\n", name)
	fmt.Fprintf(out, "   Error: %v\n", err)
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}

	// For SQLite, also try a simple query
	if sqliteStore, ok := ctx.Store.(*sqlite.Store); ok {
		db := sqliteStore.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}

	return nil
}

func schemaStatus(ctx *cli.Context) (int, int, bool, error) {
	s, ok := ctx.Store.(schemaStatuser)
	if !ok {
		return 0, 0, false, nil
	}
	current, latest, err := s.SchemaStatus()
	if err != nil {
		return 0, 0, true, fmt.Errorf("failed to read schema version: %w", err)
	}
	return current, latest, true, nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	current, latest, ok, err := schemaStatus(ctx)
	if !ok || err != nil {
		return err
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	current, latest, ok, err := schemaStatus(ctx)
	if !ok || err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return nil
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.ListBackups()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'callboard backup create'")
	}

	return nil
}

// checkSlotCapacity flags slots whose sign-up count exceeds their capacity
func checkSlotCapacity(ctx *cli.Context) error {
	bg := context.Background()
	auditions, err := ctx.Store.ListAuditions(bg)
	if err != nil {
		return fmt.Errorf("failed to list auditions: %w", err)
	}

	over := 0
	for _, a := range auditions {
		list, err := ctx.Store.SlotsForAudition(bg, a.ID)
		if err != nil {
			return fmt.Errorf("failed to list slots for %s: %w", a.ID, err)
		}
		for _, s := range list {
			if slots.StatusOf(s) == slots.StatusOverCapacity {
				over++
			}
		}
	}
	if over > 0 {
		return fmt.Errorf("found %d slot(s) over capacity", over)
	}
	return nil
}

func checkAuditionDates(ctx *cli.Context) error {
	auditions, err := ctx.Store.ListAuditions(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list auditions: %w", err)
	}

	invalid := 0
	for _, a := range auditions {
		if a.AuditionDate != "" && cli.ValidateDate(a.AuditionDate) != nil {
			invalid++
			continue
		}
		if _, err := cli.ValidateDates(a.RehearsalDates); err != nil {
			invalid++
			continue
		}
		if _, err := cli.ValidateDates(a.PerformanceDates); err != nil {
			invalid++
		}
	}
	if invalid > 0 {
		return fmt.Errorf("found %d audition(s) with invalid dates", invalid)
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}

	if _, err := utils.LoadLocation(ctx.Cfg().Timezone); err != nil {
		return fmt.Errorf("configured timezone is invalid: %w", err)
	}
	return nil
}
