package log

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedactingHandlerMasksSensitiveAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("patient saved",
		"patient_id", 7,
		"contact_number", "0917-555-0101",
		"hmo_number", "MX-1001",
		"occupation", "Teacher")

	out := buf.String()
	require.Contains(t, out, "patient_id=7")
	require.Contains(t, out, "occupation=Teacher")
	require.Contains(t, out, "contact_number=[REDACTED]")
	require.Contains(t, out, "hmo_number=[REDACTED]")
	require.NotContains(t, out, "0917-555-0101")
	require.NotContains(t, out, "MX-1001")
}

func TestRedactingHandlerMasksInsideGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("login",
		slog.Group("user", slog.String("name", "admin"), slog.String("password", "1234")))

	out := buf.String()
	require.Contains(t, out, "user.name=admin")
	require.Contains(t, out, "user.password=[REDACTED]")
	require.NotContains(t, out, "1234")
}

func TestRedactingHandlerIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewTextHandler(&buf, nil)))

	logger.Info("event", "Password", "hunter2")
	require.NotContains(t, buf.String(), "hunter2")
}

func TestRedactingHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewTextHandler(&buf, nil)))

	logger.With("birthday", "1990-04-12").Info("event")
	require.Contains(t, buf.String(), "birthday=[REDACTED]")
	require.NotContains(t, buf.String(), "1990-04-12")
}

func TestSetupStderrWhenNoFile(t *testing.T) {
	t.Parallel()

	logger, closer, err := Setup(Options{Level: "debug"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.Nil(t, closer)
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, _, err := Setup(Options{Level: "loud"})
	require.Error(t, err)
}

func TestSetupRotatingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, closer, err := Setup(Options{Level: "info", File: path})
	require.NoError(t, err)
	require.NotNil(t, closer)
	logger.Info("hello", "password", "secret")
	require.NoError(t, closer.Close())
}
