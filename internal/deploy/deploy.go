// Package deploy wires validated instances into the host: it persists
// rendered btrbk configurations, generates the systemd service and timer
// units, writes the service account identity records, and keeps a manifest
// of everything it deployed.
package deploy

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mkeller/btrbkgen/internal/btrbk"
	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/identity"
	"github.com/mkeller/btrbkgen/internal/instance"
	"github.com/mkeller/btrbkgen/internal/paths"
	"github.com/mkeller/btrbkgen/internal/systemd"
)

// Deployer builds, renders, checks and persists all declared instances.
type Deployer struct {
	// Root is the deployment root; everything is written below it.
	// Empty means the filesystem root.
	Root string
	// BtrbkPath is the btrbk binary, used in units and sudoers.
	BtrbkPath string
	// BtrfsPath is the btrfs binary, used in sudoers.
	BtrfsPath string
	// SSHFilterPath is the forced command for authorized keys.
	SSHFilterPath string
	// Checker round-trips rendered configs through btrbk. Nil skips the
	// external check (tests only; commands always set it).
	Checker *btrbk.Checker
	// SkipInvalid scopes validation failures to the offending instance
	// instead of aborting the whole deployment.
	SkipInvalid bool
	// DryRun logs what would be written without touching the filesystem.
	DryRun bool
	// Logger receives progress output. Nil means slog.Default().
	Logger *slog.Logger
}

// Deployed describes one successfully deployed instance.
type Deployed struct {
	Name     string
	Schedule string
	Conf     string
	Service  string
	Timer    string
	Rendered string
}

// Summary is the result of a deployment run.
type Summary struct {
	Instances []Deployed
	// Skipped lists instances dropped by SkipInvalid, with their errors.
	Skipped map[string]error
}

func (d *Deployer) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Deploy validates every declared instance and then persists the whole set.
// Validation is strictly first: with SkipInvalid unset, one invalid instance
// aborts the run before any file is written, so a partial deployment is
// never left behind.
func (d *Deployer) Deploy(ctx context.Context, decl *instance.Decl) (*Summary, error) {
	summary := &Summary{Skipped: map[string]error{}}

	for i := range decl.Instances {
		inst := &decl.Instances[i]
		dep, err := d.prepare(ctx, inst)
		if err != nil {
			if d.SkipInvalid {
				d.logger().Warn("skipping invalid instance", "instance", inst.Name, "error", err)
				summary.Skipped[inst.Name] = err
				continue
			}
			return nil, errors.Wrapf(err, "instance %q", inst.Name)
		}
		summary.Instances = append(summary.Instances, dep)
	}

	if len(summary.Instances) == 0 {
		return nil, errors.New("no valid instances to deploy")
	}

	if d.DryRun {
		for _, dep := range summary.Instances {
			d.logger().Info("would deploy", "instance", dep.Name, "conf", dep.Conf)
		}
		return summary, nil
	}

	if err := d.persist(decl, summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// prepare builds, renders and checks one instance without writing anything.
func (d *Deployer) prepare(ctx context.Context, inst *instance.Instance) (Deployed, error) {
	var dep Deployed

	root, err := btrbk.Build(inst)
	if err != nil {
		return dep, err
	}
	rendered := btrbk.Render(root)

	if d.Checker != nil {
		if err := d.Checker.Check(ctx, rendered); err != nil {
			return dep, err
		}
	}

	dep = Deployed{
		Name:     inst.Name,
		Schedule: inst.Schedule,
		Conf:     paths.Under(d.Root, paths.EtcDir, inst.Name+".conf"),
		Service:  paths.Under(d.Root, paths.UnitDir, systemd.ServiceName(inst.Name)),
		Timer:    paths.Under(d.Root, paths.UnitDir, systemd.TimerName(inst.Name)),
		Rendered: rendered,
	}
	return dep, nil
}

// persist writes every artifact for the validated set.
func (d *Deployer) persist(decl *instance.Decl, summary *Summary) error {
	manifest := NewManifest()

	for _, dep := range summary.Instances {
		unit := systemd.InstanceUnit{
			Name:      dep.Name,
			Schedule:  dep.Schedule,
			BtrbkPath: d.BtrbkPath,
			// units reference the final location, not the staged one
			ConfPath: paths.Under("", paths.EtcDir, dep.Name+".conf"),
		}
		service, err := systemd.Service(unit)
		if err != nil {
			return err
		}
		timer, err := systemd.Timer(unit)
		if err != nil {
			return err
		}

		files := []struct {
			path string
			text string
			perm os.FileMode
		}{
			{dep.Conf, dep.Rendered, paths.ConfFilePerm},
			{dep.Service, service, paths.UnitFilePerm},
			{dep.Timer, timer, paths.UnitFilePerm},
		}
		for _, f := range files {
			if err := d.writeFile(f.path, f.text, f.perm); err != nil {
				return err
			}
			manifest.AddFile(f.path, f.text)
		}
		manifest.AddInstance(dep)
		d.logger().Info("deployed instance", "instance", dep.Name, "conf", dep.Conf)
	}

	identityFiles := []struct {
		path string
		text string
		perm os.FileMode
	}{
		{paths.Under(d.Root, paths.SysusersDir, "btrbk.conf"), systemd.Sysusers(), paths.UnitFilePerm},
		{paths.Under(d.Root, paths.TmpfilesDir, "btrbk.conf"), systemd.Tmpfiles(), paths.UnitFilePerm},
		{paths.Under(d.Root, paths.SudoersDir, "btrbk"), identity.Sudoers(d.BtrfsPath, d.BtrbkPath), paths.SudoersFilePerm},
	}
	if len(decl.SSHKeys) > 0 {
		keys, err := identity.AuthorizedKeys(d.SSHFilterPath, decl.SSHKeys)
		if err != nil {
			return err
		}
		// the state dir and .ssh stay private to the service account
		if err := paths.EnsureDir(paths.Under(d.Root, paths.StateDir), paths.StateDirPerm); err != nil {
			return err
		}
		if err := paths.EnsureDir(paths.Under(d.Root, paths.StateDir, ".ssh"), 0o700); err != nil {
			return err
		}
		identityFiles = append(identityFiles, struct {
			path string
			text string
			perm os.FileMode
		}{paths.Under(d.Root, paths.StateDir, ".ssh", "authorized_keys"), keys, 0o600})
	}
	for _, f := range identityFiles {
		if err := d.writeFile(f.path, f.text, f.perm); err != nil {
			return err
		}
		manifest.AddFile(f.path, f.text)
	}

	manifest.Generated = time.Now().UTC().Format(time.RFC3339)
	return manifest.Write(paths.Under(d.Root, paths.EtcDir, ManifestName))
}

func (d *Deployer) writeFile(path, text string, perm os.FileMode) error {
	if err := paths.EnsureDir(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(text), perm); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
