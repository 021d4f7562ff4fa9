package system

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/julianstephens/callboard/internal/cli"
	"github.com/julianstephens/callboard/internal/constants"
	"github.com/julianstephens/callboard/internal/keyring"
	"github.com/julianstephens/callboard/internal/storage/postgres"
)

const redacted = "xxxxx"

// connection sources, in the order --db postgres consults them
const (
	sourceEnv     = "environment"
	sourceKeyring = "keyring"
)

// KeyringSetCmd stores the connection string used by --db postgres
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL URL or key=value DSN."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	connStr := strings.TrimSpace(cmd.ConnectionString)
	if _, err := postgres.ValidateConnString(connStr); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return err
		}
		// the keyring is encrypted, so a password is acceptable here
		fmt.Fprintln(ctx.Out(), "⚠️  The connection string carries a password; it is kept only in the OS keyring.")
	}

	if err := keyring.SetConnectionString(connStr); err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out(), "✓ Stored %s\n", redact(connStr))
	warnEnvOverride(ctx.Out())
	return nil
}

// KeyringGetCmd shows the connection --db postgres would use, password hidden
type KeyringGetCmd struct{}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	source, connStr, err := activeConnection()
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out(), "%s (from %s)\n", redact(connStr), source)
	return nil
}

// KeyringDeleteCmd forgets the stored connection string
type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string stored in the keyring")
		}
		return err
	}
	fmt.Fprintln(ctx.Out(), "✓ Removed the stored connection string")
	warnEnvOverride(ctx.Out())
	return nil
}

// KeyringStatusCmd reports keyring availability and where --db postgres
// would read its connection string from
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	out := ctx.Out()
	available := keyring.IsAvailable()
	if available {
		fmt.Fprintln(out, "✓ OS keyring: available")
	} else {
		fmt.Fprintln(out, "❌ OS keyring: unavailable")
	}

	source, connStr, err := activeConnection()
	switch {
	case err == nil:
		fmt.Fprintf(out, "✓ --db postgres uses the %s: %s\n", source, redact(connStr))
	case errors.Is(err, keyring.ErrNotFound):
		fmt.Fprintf(out, "ℹ --db postgres has no connection; run 'callboard keyring set' or export %s\n", constants.ConnectionEnvVar)
	default:
		fmt.Fprintf(out, "❌ %v\n", err)
	}

	if !available && source != sourceEnv {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

// activeConnection mirrors keyring.ResolveConnectionString and also names
// the source it picked
func activeConnection() (string, string, error) {
	connStr, err := keyring.ResolveConnectionString()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", "", err
		}
		return "", "", fmt.Errorf("failed to read connection string: %w", err)
	}
	if envConnection() != "" {
		return sourceEnv, connStr, nil
	}
	return sourceKeyring, connStr, nil
}

func envConnection() string {
	return strings.TrimSpace(os.Getenv(constants.ConnectionEnvVar))
}

func warnEnvOverride(out io.Writer) {
	if envConnection() != "" {
		fmt.Fprintf(out, "ℹ %s is set and still takes precedence\n", constants.ConnectionEnvVar)
	}
}

// redact hides the password of a URL or key=value connection string
func redact(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return redacted
		}
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), redacted)
		}
		return u.String()
	}

	fields := strings.Fields(connStr)
	for i, f := range fields {
		key, _, ok := strings.Cut(f, "=")
		if ok && strings.EqualFold(key, "password") {
			fields[i] = key + "=" + redacted
		}
	}
	return strings.Join(fields, " ")
}
