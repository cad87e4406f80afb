package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkeller/btrbkgen/internal/validator"
)

const testDecl = `
instances:
  daily:
    schedule: "daily"
    options:
      snapshot_preserve: 14d
    volumes:
      /mnt/data:
        subvolumes: ["/mnt/data/docs"]
        targets: ["/backup"]
`

const badDecl = `
instances:
  daily:
    schedule: "daily"
    options:
      bogus_option: "yes"
    volumes:
      /mnt/data:
        subvolumes: ["/mnt/data/docs"]
`

func writeDecl(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "btrbk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

// resetFlags clears persistent and per-command flag state between runs;
// cobra keeps flag values across Execute calls.
func resetFlags() {
	declFile = ""
	verbosity = 0
	quiet = false
	logFormat = "text"
	logFile = ""
	renderOutDir = ""
	validateFormat = "text"
	validateSkipCheck = false
	deployRoot = ""
	deployDryRun = false
	deploySkipInvalid = false
	deploySkipCheck = false
	statusRoot = ""
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRender_SingleInstance(t *testing.T) {
	decl := writeDecl(t, testDecl)

	out, err := executeCommand(t, "render", "-f", decl, "daily")
	require.NoError(t, err)

	assert.Contains(t, out, "backend btrfs-progs-sudo")
	assert.Contains(t, out, "volume /mnt/data")
	assert.Contains(t, out, " subvolume /mnt/data/docs")
	assert.Contains(t, out, " target /backup")
	assert.NotContains(t, out, "# instance", "single instance output carries no separator")
}

func TestRender_UnknownInstance(t *testing.T) {
	decl := writeDecl(t, testDecl)

	_, err := executeCommand(t, "render", "-f", decl, "nope")
	require.Error(t, err)
}

func TestRender_OutDir(t *testing.T) {
	decl := writeDecl(t, testDecl)
	outDir := t.TempDir()

	_, err := executeCommand(t, "render", "-f", decl, "--out-dir", outDir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "daily.conf"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "snapshot_preserve 14d")
}

func TestValidate_Valid(t *testing.T) {
	decl := writeDecl(t, testDecl)

	out, err := executeCommand(t, "validate", "-f", decl, "--skip-check")
	require.NoError(t, err)
	assert.Contains(t, out, "Validation passed")
}

func TestValidate_UnknownOption(t *testing.T) {
	decl := writeDecl(t, badDecl)

	out, err := executeCommand(t, "validate", "-f", decl, "--skip-check")
	require.Error(t, err)
	assert.Contains(t, out, "Validation failed")
	assert.Contains(t, out, "bogus_option")
}

func TestValidate_JSON(t *testing.T) {
	decl := writeDecl(t, badDecl)

	out, err := executeCommand(t, "validate", "-f", decl, "--skip-check", "--format", "json")
	require.Error(t, err)

	var result validator.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.NotEmpty(t, result.Issues)
	assert.Equal(t, "daily", result.Issues[0].Field)
}

func TestDeploy_DryRun(t *testing.T) {
	decl := writeDecl(t, testDecl)
	root := t.TempDir()

	out, err := executeCommand(t, "deploy", "-f", decl, "--root", root, "--skip-check", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would deploy 1 instance(s)")

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries, "dry run must not write anything")
}

func TestDeployThenStatus(t *testing.T) {
	decl := writeDecl(t, testDecl)
	root := t.TempDir()

	out, err := executeCommand(t, "deploy", "-f", decl, "--root", root, "--skip-check")
	require.NoError(t, err)
	assert.Contains(t, out, "Deployed 1 instance(s)")

	_, err = os.Stat(filepath.Join(root, "etc/btrbk/daily.conf"))
	require.NoError(t, err)

	out, err = executeCommand(t, "status", "-f", decl, "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "matches the declaration")
}

func TestStatus_Drift(t *testing.T) {
	decl := writeDecl(t, testDecl)
	root := t.TempDir()

	_, err := executeCommand(t, "deploy", "-f", decl, "--root", root, "--skip-check")
	require.NoError(t, err)

	conf := filepath.Join(root, "etc/btrbk/daily.conf")
	require.NoError(t, os.WriteFile(conf, []byte("tampered\n"), 0o644))

	out, err := executeCommand(t, "status", "-f", decl, "--root", root)
	require.Error(t, err)
	assert.Contains(t, out, "modified")
}

func TestInstances_List(t *testing.T) {
	decl := writeDecl(t, testDecl)

	out, err := executeCommand(t, "instances", "-f", decl)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "daily")
}
