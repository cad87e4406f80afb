package instance

import (
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/mkeller/btrbkgen/internal/errors"
)

// unitNameAtom matches instance names that are safe inside a systemd unit
// name (btrbk-<name>.service).
var unitNameAtom = regexp.MustCompile(`^[a-zA-Z0-9:_.\-]+$`)

// Load reads and parses a declaration file.
func Load(path string) (*Decl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading declaration %s", path)
	}
	decl, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing declaration %s", path)
	}
	return decl, nil
}

// Parse parses declaration YAML. Instance and volume order is preserved as
// written; unknown fields are rejected.
func Parse(data []byte) (*Decl, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, errors.New("empty declaration")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Wrap(errors.ErrInvalidShape, "declaration must be a mapping")
	}

	decl := &Decl{}
	for i := 0; i < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "instances":
			instances, err := parseInstances(value)
			if err != nil {
				return nil, err
			}
			decl.Instances = instances
		case "ssh":
			if err := parseSSH(value, decl); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Newf("line %d: unknown field %q", key.Line, key.Value)
		}
	}

	if len(decl.Instances) == 0 {
		return nil, errors.New("declaration contains no instances")
	}
	return decl, nil
}

func parseInstances(node *yaml.Node) ([]Instance, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.Wrapf(errors.ErrInvalidShape,
			"line %d: instances must be a mapping of name to instance", node.Line)
	}

	seen := map[string]bool{}
	instances := make([]Instance, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		name := key.Value
		if !unitNameAtom.MatchString(name) {
			return nil, errors.Newf("line %d: invalid instance name %q", key.Line, name)
		}
		if seen[name] {
			return nil, errors.Newf("line %d: duplicate instance %q", key.Line, name)
		}
		seen[name] = true

		inst, err := parseInstance(name, value)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

func parseInstance(name string, node *yaml.Node) (Instance, error) {
	inst := Instance{Name: name}
	if node.Kind != yaml.MappingNode {
		return inst, errors.Wrapf(errors.ErrInvalidShape,
			"line %d: instance %q must be a mapping", node.Line, name)
	}

	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "schedule":
			inst.Schedule = value.Value
		case "options":
			if err := inst.Options.UnmarshalYAML(value); err != nil {
				return inst, errors.Wrapf(err, "instance %q", name)
			}
		case "volumes":
			volumes, err := parseVolumes(name, value)
			if err != nil {
				return inst, err
			}
			inst.Volumes = volumes
		default:
			return inst, errors.Newf("line %d: instance %q: unknown field %q",
				key.Line, name, key.Value)
		}
	}

	if inst.Schedule == "" {
		return inst, errors.Newf("instance %q: schedule is required", name)
	}
	if len(inst.Volumes) == 0 {
		return inst, errors.Newf("instance %q: at least one volume is required", name)
	}
	return inst, nil
}

func parseVolumes(instName string, node *yaml.Node) ([]Volume, error) {
	if node.Kind != yaml.MappingNode {
		return nil, errors.Wrapf(errors.ErrInvalidShape,
			"line %d: instance %q: volumes must be a mapping of path to volume", node.Line, instName)
	}

	seen := map[string]bool{}
	volumes := make([]Volume, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		path := key.Value
		if seen[path] {
			return nil, errors.Newf("line %d: instance %q: duplicate volume %q",
				key.Line, instName, path)
		}
		seen[path] = true

		vol, err := parseVolume(instName, path, value)
		if err != nil {
			return nil, err
		}
		volumes = append(volumes, vol)
	}
	return volumes, nil
}

func parseVolume(instName, path string, node *yaml.Node) (Volume, error) {
	vol := Volume{Path: path}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		// a volume with neither overrides nor subsections is pointless but legal
		return vol, nil
	}
	if node.Kind != yaml.MappingNode {
		return vol, errors.Wrapf(errors.ErrInvalidShape,
			"line %d: volume %q must be a mapping", node.Line, path)
	}

	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "options":
			if err := vol.Options.UnmarshalYAML(value); err != nil {
				return vol, errors.Wrapf(err, "volume %q", path)
			}
		case "subvolumes":
			if err := vol.Subvolumes.UnmarshalYAML(value); err != nil {
				return vol, errors.Wrapf(err, "volume %q subvolumes", path)
			}
		case "targets":
			if err := vol.Targets.UnmarshalYAML(value); err != nil {
				return vol, errors.Wrapf(err, "volume %q targets", path)
			}
		default:
			return vol, errors.Newf("line %d: instance %q volume %q: unknown field %q",
				key.Line, instName, path, key.Value)
		}
	}
	return vol, nil
}

func parseSSH(node *yaml.Node, decl *Decl) error {
	var ssh struct {
		AllowedKeys []SSHKey `yaml:"allowed_keys"`
	}
	if err := node.Decode(&ssh); err != nil {
		return errors.Wrap(err, "ssh section")
	}
	decl.SSHKeys = ssh.AllowedKeys
	return nil
}
