package deploy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkeller/btrbkgen/internal/btrbk"
	"github.com/mkeller/btrbkgen/internal/instance"
	"github.com/mkeller/btrbkgen/internal/logging"
	"github.com/mkeller/btrbkgen/internal/paths"
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
  weekly:
    schedule: "weekly"
    volumes:
      /mnt/media:
        subvolumes: ["/mnt/media/video"]
ssh:
  allowed_keys:
    - key: "ssh-ed25519 AAAAC3Nz backup@remote"
      roles: [source, info]
`

func testDeployer(t *testing.T) *Deployer {
	t.Helper()
	return &Deployer{
		Root:          t.TempDir(),
		BtrbkPath:     "/usr/bin/btrbk",
		BtrfsPath:     "/usr/bin/btrfs",
		SSHFilterPath: "/usr/share/btrbk/scripts/ssh_filter_btrbk.sh",
		Logger:        logging.ForTest(t),
	}
}

func parseDecl(t *testing.T, text string) *instance.Decl {
	t.Helper()
	decl, err := instance.Parse([]byte(text))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return decl
}

func TestDeploy(t *testing.T) {
	d := testDeployer(t)
	decl := parseDecl(t, testDecl)

	summary, err := d.Deploy(context.Background(), decl)
	if err != nil {
		t.Fatalf("Deploy() error: %v", err)
	}
	if len(summary.Instances) != 2 {
		t.Fatalf("deployed %d instances, want 2", len(summary.Instances))
	}

	conf, err := os.ReadFile(paths.Under(d.Root, paths.EtcDir, "daily.conf"))
	if err != nil {
		t.Fatalf("reading deployed conf: %v", err)
	}
	for _, want := range []string{
		"snapshot_preserve 14d",
		"volume /mnt/data",
		" subvolume /mnt/data/docs",
		" target /backup",
	} {
		if !strings.Contains(string(conf), want) {
			t.Errorf("conf missing %q:\n%s", want, conf)
		}
	}

	service, err := os.ReadFile(paths.Under(d.Root, paths.UnitDir, "btrbk-daily.service"))
	if err != nil {
		t.Fatalf("reading service unit: %v", err)
	}
	// the unit points at the final /etc location, not the staging root
	if !strings.Contains(string(service), "ExecStart=/usr/bin/btrbk -c /etc/btrbk/daily.conf run") {
		t.Errorf("service unit:\n%s", service)
	}

	timer, err := os.ReadFile(paths.Under(d.Root, paths.UnitDir, "btrbk-weekly.timer"))
	if err != nil {
		t.Fatalf("reading timer unit: %v", err)
	}
	if !strings.Contains(string(timer), "OnCalendar=weekly") {
		t.Errorf("timer unit:\n%s", timer)
	}

	for _, path := range []string{
		paths.Under(d.Root, paths.SysusersDir, "btrbk.conf"),
		paths.Under(d.Root, paths.TmpfilesDir, "btrbk.conf"),
		paths.Under(d.Root, paths.SudoersDir, "btrbk"),
		paths.Under(d.Root, paths.StateDir, ".ssh", "authorized_keys"),
		paths.Under(d.Root, paths.EtcDir, ManifestName),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing artifact %s: %v", path, err)
		}
	}

	sudoers := paths.Under(d.Root, paths.SudoersDir, "btrbk")
	info, err := os.Stat(sudoers)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != paths.SudoersFilePerm {
		t.Errorf("sudoers perm = %o, want %o", perm, paths.SudoersFilePerm)
	}

	keys, err := os.ReadFile(paths.Under(d.Root, paths.StateDir, ".ssh", "authorized_keys"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(keys), `command="/usr/share/btrbk/scripts/ssh_filter_btrbk.sh --source --info",restrict`) {
		t.Errorf("authorized_keys:\n%s", keys)
	}
}

func TestDeploy_InvalidAborts(t *testing.T) {
	d := testDeployer(t)
	decl := parseDecl(t, `
instances:
  good:
    schedule: daily
    volumes:
      /mnt/a:
        subvolumes: ["/mnt/a/home"]
  bad:
    schedule: daily
    options:
      bogus_option: x
    volumes:
      /mnt/b:
        subvolumes: ["/mnt/b/home"]
`)

	if _, err := d.Deploy(context.Background(), decl); err == nil {
		t.Fatal("expected the deployment to abort")
	}

	// nothing may be written, including for the valid instance
	if _, err := os.Stat(paths.Under(d.Root, paths.EtcDir, "good.conf")); !os.IsNotExist(err) {
		t.Error("valid instance was deployed despite an invalid sibling")
	}
	if _, err := os.Stat(paths.Under(d.Root, paths.EtcDir, ManifestName)); !os.IsNotExist(err) {
		t.Error("manifest written for an aborted deployment")
	}
}

func TestDeploy_SkipInvalid(t *testing.T) {
	d := testDeployer(t)
	d.SkipInvalid = true
	decl := parseDecl(t, `
instances:
  good:
    schedule: daily
    volumes:
      /mnt/a:
        subvolumes: ["/mnt/a/home"]
  bad:
    schedule: daily
    options:
      bogus_option: x
    volumes:
      /mnt/b:
        subvolumes: ["/mnt/b/home"]
`)

	summary, err := d.Deploy(context.Background(), decl)
	if err != nil {
		t.Fatalf("Deploy() error: %v", err)
	}
	if len(summary.Instances) != 1 || summary.Instances[0].Name != "good" {
		t.Errorf("Instances = %v", summary.Instances)
	}
	if _, skipped := summary.Skipped["bad"]; !skipped {
		t.Error("bad should be recorded as skipped")
	}

	if _, err := os.Stat(paths.Under(d.Root, paths.EtcDir, "good.conf")); err != nil {
		t.Errorf("good.conf should be deployed: %v", err)
	}
}

func TestDeploy_DryRun(t *testing.T) {
	d := testDeployer(t)
	d.DryRun = true
	decl := parseDecl(t, testDecl)

	summary, err := d.Deploy(context.Background(), decl)
	if err != nil {
		t.Fatalf("Deploy() error: %v", err)
	}
	if len(summary.Instances) != 2 {
		t.Errorf("dry run should still validate all instances")
	}

	entries, err := os.ReadDir(d.Root)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("dry run wrote files: %v", entries)
	}
}

func TestDeploy_CheckerRejection(t *testing.T) {
	tool := filepath.Join(t.TempDir(), "btrbk")
	script := "#!/bin/sh\necho \"error parsing config file \\\"$2\\\"\"\n"
	if err := os.WriteFile(tool, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	d := testDeployer(t)
	d.Checker = &btrbk.Checker{BtrbkPath: tool, TempDir: t.TempDir()}
	decl := parseDecl(t, testDecl)

	if _, err := d.Deploy(context.Background(), decl); err == nil {
		t.Fatal("expected rejection from the external check")
	}
	if _, err := os.Stat(paths.Under(d.Root, paths.EtcDir, "daily.conf")); !os.IsNotExist(err) {
		t.Error("nothing may be deployed when the check fails")
	}
}
