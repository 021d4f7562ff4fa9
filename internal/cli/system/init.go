package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/config"
	"github.com/julianstephens/callboard/internal/storage/sqlite"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting existing database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	out := ctx.Out()

	// Only a SQLite file can be reset in place
	if c.Force {
		if _, ok := ctx.Store.(*sqlite.Store); !ok {
			return fmt.Errorf("--force is only supported for SQLite databases")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Fprintf(out, "Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Initialized callboard storage at: %s\n", ctx.Store.GetConfigPath())

	if ctx.ConfigPath != "" {
		cfg, err := config.Load(ctx.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		ctx.Config = cfg
		fmt.Fprintf(out, "Config file: %s\n", ctx.ConfigPath)
	}
	return nil
}
