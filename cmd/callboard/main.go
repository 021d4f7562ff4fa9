package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/cli/auditions"
	"github.com/julianstephens/callboard/internal/cli/backups"
	"github.com/julianstephens/callboard/internal/cli/calendars"
	"github.com/julianstephens/callboard/internal/cli/rehearsals"
	"github.com/julianstephens/callboard/internal/cli/system"
	"github.com/julianstephens/callboard/internal/config"
	"github.com/julianstephens/callboard/internal/constants"
	cberrors "github.com/julianstephens/callboard/internal/errors"
	"github.com/julianstephens/callboard/internal/keyring"
	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/storage"
	"github.com/julianstephens/callboard/internal/storage/postgres"
	"github.com/julianstephens/callboard/internal/storage/sqlite"
	"github.com/julianstephens/callboard/internal/utils"
)

// postgresKeyword selects the connection string from the environment or keyring
const postgresKeyword = "postgres"

var CLI struct {
	Version kong.VersionFlag
	DB      string `name:"db" help:"SQLite database path, a PostgreSQL connection string without a password, or 'postgres' to use ${env} or the OS keyring." default:"${db}"`
	Config  string `help:"YAML config file path." type:"path" default:"${config}"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd   `cmd:"" help:"Initialize callboard storage."`
	Doctor  system.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd    `cmd:"" help:"Launch the interactive TUI."`
	Serve   system.ServeCmd  `cmd:"" help:"Serve calendars and exports over HTTP."`
	Watch   system.WatchCmd  `cmd:"" help:"Refresh calendar files on a cron schedule."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string, password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check keyring availability." default:"1"`
	} `cmd:"" help:"Manage database credentials in the OS keyring."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Audition struct {
		Add     auditions.AuditionAddCmd     `cmd:"" help:"Add an audition."`
		List    auditions.AuditionListCmd    `cmd:"" help:"List auditions." default:"1"`
		Advance auditions.AuditionAdvanceCmd `cmd:"" help:"Move a production to its next stage."`
	} `cmd:"" help:"Manage auditions."`
	Slot struct {
		Add    auditions.SlotAddCmd    `cmd:"" help:"Add an audition slot."`
		List   auditions.SlotListCmd   `cmd:"" help:"List an audition's slots."`
		Next   auditions.SlotNextCmd   `cmd:"" help:"Show the next open slot."`
		Signup auditions.SlotSignupCmd `cmd:"" help:"Sign up for a slot."`
	} `cmd:"" help:"Manage audition slots."`
	Cast struct {
		Add auditions.CastAddCmd `cmd:"" help:"Cast a performer."`
	} `cmd:"" help:"Manage the cast."`
	Team struct {
		Add auditions.TeamAddCmd `cmd:"" help:"Add a production team member."`
	} `cmd:"" help:"Manage the production team."`
	Rehearsal struct {
		Add rehearsals.RehearsalAddCmd `cmd:"" help:"Add a rehearsal, optionally recurring."`
	} `cmd:"" help:"Manage rehearsals."`
	Agenda struct {
		Add rehearsals.AgendaAddCmd `cmd:"" help:"Add an agenda item to a rehearsal."`
	} `cmd:"" help:"Manage rehearsal agendas."`
	Event struct {
		Add    rehearsals.EventAddCmd    `cmd:"" help:"Add a production event."`
		Assign rehearsals.EventAssignCmd `cmd:"" help:"Assign a production event to a user."`
	} `cmd:"" help:"Manage production events."`
	Personal struct {
		Add    calendars.PersonalAddCmd    `cmd:"" help:"Add a personal event."`
		Import calendars.PersonalImportCmd `cmd:"" help:"Import personal events from an .ics file."`
	} `cmd:"" help:"Manage personal events."`
	Calendar struct {
		Show      calendars.CalendarShowCmd      `cmd:"" help:"Show a user's calendar." default:"withargs"`
		Export    calendars.CalendarExportCmd    `cmd:"" help:"Export a user's calendar as ICS or PDF."`
		Conflicts calendars.CalendarConflictsCmd `cmd:"" help:"Report overlapping events."`
	} `cmd:"" help:"View and export calendars."`
	Profile struct {
		Set  calendars.ProfileSetCmd  `cmd:"" help:"Create or update a profile."`
		Show calendars.ProfileShowCmd `cmd:"" help:"Show a profile."`
	} `cmd:"" help:"Manage performer profiles."`
	Resume struct {
		Export calendars.ResumeExportCmd `cmd:"" help:"Export a resume PDF." default:"withargs"`
	} `cmd:"" help:"Performer resumes."`
	Location struct {
		Parse calendars.LocationParseCmd `cmd:"" help:"Parse addresses into city and state." default:"withargs"`
	} `cmd:"" help:"Inspect venue addresses."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Audition and production calendar for theater companies"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": constants.Version,
			"db":      constants.DefaultDBPath,
			"config":  constants.DefaultConfigPath,
			"env":     constants.ConnectionEnvVar,
		},
	)

	configPath, err := utils.ExpandHome(CLI.Config)
	if err != nil {
		cberrors.Fatal(err)
	}
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: filepath.Dir(configPath)}); err != nil {
		cberrors.Fatal(fmt.Errorf("failed to initialize logger: %w", err))
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		cberrors.Fatal(err)
	}

	appCtx := &cli.Context{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger.Default(),
	}

	// keyring commands must work before any database is reachable
	command := commandName(ctx.Command())
	if command != "keyring" {
		store, err := openStore(CLI.DB)
		if err != nil {
			cberrors.Fatal(err)
		}
		appCtx.Store = store
		if needsLoad(command) {
			if err := store.Load(); err != nil {
				cberrors.Fatal(err)
			}
		}
	}

	err = ctx.Run(appCtx)
	if appCtx.Store != nil {
		appCtx.Store.Close()
	}
	if err != nil {
		cberrors.Fatal(err)
	}
}

// openStore picks the backend from the --db value
func openStore(db string) (storage.Provider, error) {
	switch {
	case db == postgresKeyword:
		connStr, err := keyring.ResolveConnectionString()
		if err != nil {
			return nil, err
		}
		return postgres.New(connStr), nil
	case strings.HasPrefix(db, "postgres://") || strings.HasPrefix(db, "postgresql://"):
		if _, err := postgres.ValidateConnString(db); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL connection strings passed with --db must not embed a password; "+
					"store it with 'callboard keyring set', export %s, or use .pgpass", constants.ConnectionEnvVar)
			}
			return nil, err
		}
		return postgres.New(db), nil
	default:
		path, err := utils.ExpandHome(db)
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(path), nil
	}
}

func commandName(command string) string {
	if fields := strings.Fields(command); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

// needsLoad reports whether a command runs against an already loaded
// database. init creates it and doctor loads it as one of its checks.
func needsLoad(command string) bool {
	switch command {
	case "init", "doctor":
		return false
	}
	return true
}
