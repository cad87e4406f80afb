package deploy

import (
	"os"

	"github.com/mkeller/btrbkgen/internal/btrbk"
	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/instance"
	"github.com/mkeller/btrbkgen/internal/paths"
)

// DriftState classifies one deployed artifact relative to the manifest and
// the current declaration.
type DriftState string

const (
	// StateOK means the file matches what was deployed.
	StateOK DriftState = "ok"
	// StateModified means the file on disk differs from the manifest.
	StateModified DriftState = "modified"
	// StateMissing means a recorded file no longer exists.
	StateMissing DriftState = "missing"
	// StateStale means the declaration now renders differently than what
	// was deployed.
	StateStale DriftState = "stale"
	// StateUndeployed means a declared instance has never been deployed.
	StateUndeployed DriftState = "undeployed"
)

// Drift is one status finding.
type Drift struct {
	Instance string
	Path     string
	State    DriftState
}

// Status compares the deployment manifest against the files on disk and
// against a fresh render of the declaration.
func (d *Deployer) Status(decl *instance.Decl) ([]Drift, error) {
	manifest, err := ReadManifest(paths.Under(d.Root, paths.EtcDir, ManifestName))
	if err != nil {
		return nil, errors.Wrap(err, "no deployment manifest")
	}

	var drifts []Drift

	for _, f := range manifest.Files {
		data, err := os.ReadFile(f.Path)
		switch {
		case os.IsNotExist(err):
			drifts = append(drifts, Drift{Path: f.Path, State: StateMissing})
		case err != nil:
			return nil, errors.Wrapf(err, "reading %s", f.Path)
		case Checksum(string(data)) != f.SHA256:
			drifts = append(drifts, Drift{Path: f.Path, State: StateModified})
		default:
			drifts = append(drifts, Drift{Path: f.Path, State: StateOK})
		}
	}

	deployed := map[string]ManifestInstance{}
	for _, mi := range manifest.Instances {
		deployed[mi.Name] = mi
	}

	for i := range decl.Instances {
		inst := &decl.Instances[i]
		mi, ok := deployed[inst.Name]
		if !ok {
			drifts = append(drifts, Drift{Instance: inst.Name, State: StateUndeployed})
			continue
		}

		root, err := btrbk.Build(inst)
		if err != nil {
			return nil, errors.Wrapf(err, "instance %q", inst.Name)
		}
		recorded, found := manifest.Lookup(mi.Conf)
		if found && Checksum(btrbk.Render(root)) != recorded {
			drifts = append(drifts, Drift{Instance: inst.Name, Path: mi.Conf, State: StateStale})
		}
	}

	return drifts, nil
}
