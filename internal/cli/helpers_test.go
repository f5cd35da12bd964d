package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/aqasim81/posmigrate/internal/config"
	"github.com/aqasim81/posmigrate/internal/sqlexec"
)

// setupTestConfig sets AppConfig for the duration of the test and restores it on cleanup.
// The desktop engine points at a fresh database file under t.TempDir().
func setupTestConfig(t *testing.T, migrationsDir string, mutate ...func(*config.Config)) *config.Config {
	t.Helper()

	oldCfg, oldLogger := AppConfig, Logger

	cfg := config.New()
	cfg.MigrationsDir = migrationsDir
	cfg.DatabasePath = filepath.Join(t.TempDir(), "pos.db")

	for _, fn := range mutate {
		fn(cfg)
	}

	AppConfig = cfg
	Logger = sqlexec.DiscardLogger()

	t.Cleanup(func() { AppConfig, Logger = oldCfg, oldLogger })

	return cfg
}

// newTestCmd creates a fresh cobra.Command wired to run with a captured output buffer.
func newTestCmd(t *testing.T, run func(*cobra.Command, []string) error, boolFlags ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()

	buf := new(bytes.Buffer)
	cmd := &cobra.Command{RunE: run}

	for _, name := range boolFlags {
		cmd.Flags().Bool(name, false, "")
	}

	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{})

	return cmd, buf
}

func safeDir() string      { return filepath.Join("testdata", "safe") }
func dangerousDir() string { return filepath.Join("testdata", "dangerous") }
func brokenDir() string    { return filepath.Join("testdata", "broken") }
