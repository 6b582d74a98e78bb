package cli

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// cliEnv pins one database file so successive invocations in a test share
// state the way successive runs of the binary would.
type cliEnv struct {
	dbPath     string
	configPath string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	return &cliEnv{
		dbPath:     filepath.Join(dir, "records.db"),
		configPath: filepath.Join(dir, "missing.toml"),
	}
}

func (e *cliEnv) run(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(&out, BuildInfo{Version: "test", Commit: "none", BuildTime: "now"})
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	cmd.SetArgs(append([]string{"--config", e.configPath, "--db", e.dbPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, nil, args...)
	require.NoError(t, err, "command %v failed: %s", args, out)
	return out
}

func exitCodeOf(err error) int {
	var withExit interface{ ExitCode() int }
	if errors.As(err, &withExit) {
		return withExit.ExitCode()
	}
	if err == nil {
		return ExitCodeSuccess
	}
	return ExitCodeGeneric
}

func TestVersionCommandJSON(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t)
	out := env.mustRun(t, "version", "--json")
	require.Contains(t, out, `"version": "test"`)

	out = env.mustRun(t, "version")
	require.Contains(t, out, "version=test")
}

func TestPatientLifecycle(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t)

	out := env.mustRun(t, "patient", "add",
		"--first-name", "Maria", "--last-name", "Santos",
		"--gender", "F", "--birthday", "1990-04-12", "--contact", "0917-555-0101",
		"--hmo", "Maxicare", "--hmo-number", "MX-1001")
	require.Contains(t, out, "patient 1 created")

	out = env.mustRun(t, "patient", "get", "1")
	require.Contains(t, out, "name:     Maria Santos")
	require.Contains(t, out, "hmo:      Maxicare (MX-1001)")

	out = env.mustRun(t, "patient", "list")
	require.Contains(t, out, "Santos")

	out = env.mustRun(t, "patient", "search", "MX-10")
	require.Contains(t, out, "Santos")

	out = env.mustRun(t, "patient", "update", "1",
		"--first-name", "Maria", "--last-name", "Santos-Lim",
		"--gender", "F", "--birthday", "1990-04-12", "--contact", "0917-555-0101")
	require.Contains(t, out, "patient 1 updated")

	out = env.mustRun(t, "patient", "get", "1")
	require.Contains(t, out, "Santos-Lim")

	out = env.mustRun(t, "patient", "delete", "1")
	require.Contains(t, out, "patient 1 deleted")

	_, err := env.run(t, nil, "patient", "get", "1")
	require.Error(t, err)
	require.Equal(t, ExitCodeNotFound, exitCodeOf(err))
}

func TestPatientAddMissingFieldsIsUsageError(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t)
	_, err := env.run(t, nil, "patient", "add", "--first-name", "Maria")
	require.Error(t, err)
	require.Equal(t, ExitCodeUsage, exitCodeOf(err))
}

func TestInvalidIDIsUsageError(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t)
	_, err := env.run(t, nil, "patient", "get", "abc")
	require.Error(t, err)
	require.Equal(t, ExitCodeUsage, exitCodeOf(err))
}

func TestVisitAndPaymentFlow(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t)

	env.mustRun(t, "patient", "add",
		"--first-name", "Maria", "--last-name", "Santos",
		"--gender", "F", "--birthday", "1990-04-12", "--contact", "0917-555-0101")

	out := env.mustRun(t, "visit", "add", "1",
		"--date", "2024-03-01T09:00:00.000Z", "--procedure", "Cleaning",
		"--mode", "Installment", "--cost", "500",
		"--pay", "200", "--pay-method", "Cash")
	require.Contains(t, out, "visit 1 created")
	require.Contains(t, out, "initial payment of 200.00 recorded")

	out = env.mustRun(t, "visit", "list", "--patient", "1")
	require.Contains(t, out, "Cleaning")
	require.Contains(t, out, "300.00")

	out = env.mustRun(t, "payment", "add", "1",
		"--amount", "100", "--date", "2024-03-08T09:00:00.000Z", "--method", "Cash")
	require.Contains(t, out, "balance now 200.00")

	out = env.mustRun(t, "payment", "list", "--visit", "1")
	require.Contains(t, out, "200.00")
	require.Contains(t, out, "100.00")

	out = env.mustRun(t, "payment", "delete", "2", "1")
	require.Contains(t, out, "payment 2 deleted")

	out = env.mustRun(t, "visit", "list", "--patient", "1")
	require.Contains(t, out, "300.00")

	out = env.mustRun(t, "visit", "delete", "1")
	require.Contains(t, out, "visit 1 deleted")

	_, err := env.run(t, nil, "payment", "delete", "1", "1")
	require.Error(t, err)
	require.Equal(t, ExitCodeNotFound, exitCodeOf(err))
}

func TestBackupExportAllAndImport(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t)
	env.mustRun(t, "patient", "add",
		"--first-name", "Maria", "--last-name", "Santos",
		"--gender", "F", "--birthday", "1990-04-12", "--contact", "0917-555-0101")

	dir := t.TempDir()
	out := env.mustRun(t, "backup", "export-all", "--dir", dir)
	require.Contains(t, out, "backup ")
	require.Contains(t, out, "Backups-")
	require.Contains(t, out, "skipped visits")

	matches, err := filepath.Glob(filepath.Join(dir, "Backups-*", "patients_backup_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// Restoring into a fresh database reproduces the record.
	fresh := newCLIEnv(t)
	out, err = fresh.run(t, nil, "backup", "import", matches[0])
	require.NoError(t, err, out)
	require.Contains(t, out, "imported 1 rows into patients")

	out = fresh.mustRun(t, "patient", "get", "1")
	require.Contains(t, out, "Maria Santos")
}

func TestBackupExportSingleTable(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t)
	env.mustRun(t, "patient", "add",
		"--first-name", "Maria", "--last-name", "Santos",
		"--gender", "F", "--birthday", "1990-04-12", "--contact", "0917-555-0101")

	dir := t.TempDir()
	out := env.mustRun(t, "backup", "export", "patients", "--dir", dir)
	require.Contains(t, out, "exported patients")

	matches, err := filepath.Glob(filepath.Join(dir, "patients_backup_*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestUserRegisterAndLogin(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t)

	out, err := env.run(t, strings.NewReader("s3cret\n"), "user", "register", "reception")
	require.NoError(t, err, out)
	require.Contains(t, out, "registered")

	out, err = env.run(t, strings.NewReader("s3cret\n"), "user", "login", "reception")
	require.NoError(t, err, out)
	require.Contains(t, out, "login ok")

	_, err = env.run(t, strings.NewReader("wrong\n"), "user", "login", "reception")
	require.Error(t, err)
	require.Equal(t, ExitCodeAuthFailed, exitCodeOf(err))

	_, err = env.run(t, strings.NewReader("\n"), "user", "login", "reception")
	require.Error(t, err)
	require.Equal(t, ExitCodeUsage, exitCodeOf(err))

	out, err = env.run(t, strings.NewReader("1234\n"), "user", "login", "admin")
	require.NoError(t, err, out)

	out = env.mustRun(t, "user", "list")
	require.Contains(t, out, "admin")
	require.Contains(t, out, "reception")
}

func TestStatusReportsCounts(t *testing.T) {
	t.Parallel()

	env := newCLIEnv(t)
	env.mustRun(t, "patient", "add",
		"--first-name", "Maria", "--last-name", "Santos",
		"--gender", "F", "--birthday", "1990-04-12", "--contact", "0917-555-0101")

	out := env.mustRun(t, "status")
	require.Contains(t, out, "integrity: ok")
	require.Contains(t, out, "patients")
	require.Contains(t, out, "users")
}
