package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/callboard/internal/export"
	"github.com/julianstephens/callboard/internal/keyring"
	"github.com/julianstephens/callboard/internal/logger"
	"github.com/julianstephens/callboard/internal/storage"
)

// hints maps sentinel errors to what the user should do next
var hints = []struct {
	target error
	hint   string
}{
	{storage.ErrSlotFull, "pick another slot"},
	{storage.ErrAlreadySignedUp, "you already hold a place in this slot"},
	{keyring.ErrNotFound, "run 'callboard keyring set' or set CALLBOARD_DB_CONNECTION"},
	{keyring.ErrKeyringUnavailable, "set CALLBOARD_DB_CONNECTION instead"},
	{export.ErrNoEvents, "nothing is scheduled for this user yet"},
}

// Describe renders err for a terminal, appending a hint for known failures.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	for _, h := range hints {
		if stderrors.Is(err, h.target) {
			return fmt.Sprintf("%v (%s)", err, h.hint)
		}
	}
	return err.Error()
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return "Error: " + Describe(err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
