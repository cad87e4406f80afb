package instance

import (
	"gopkg.in/yaml.v3"

	"github.com/mkeller/btrbkgen/internal/errors"
)

// Pair is a single option assignment. Values are kept as raw scalar text;
// the btrbk package checks them against the option catalog.
type Pair struct {
	Key   string
	Value string
}

// Options is an ordered set of option assignments. Insertion order in the
// declaration file is preserved, which is what ends up in the rendered
// configuration.
type Options []Pair

// Get returns the value for key and whether it is present.
func (o Options) Get(key string) (string, bool) {
	for _, p := range o {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// UnmarshalYAML decodes a YAML mapping into ordered pairs. Scalar values of
// any YAML type are accepted and kept as their literal text.
func (o *Options) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Wrapf(errors.ErrInvalidShape, "line %d: options must be a mapping", node.Line)
	}
	pairs := make(Options, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return errors.Wrapf(errors.ErrInvalidShape,
				"line %d: option %q must have a scalar value", value.Line, key.Value)
		}
		if _, dup := pairs.Get(key.Value); dup {
			return errors.Newf("line %d: duplicate option %q", key.Line, key.Value)
		}
		pairs = append(pairs, Pair{Key: key.Value, Value: value.Value})
	}
	*o = pairs
	return nil
}

// SubsectionEntry is one subvolume or target: a path plus its per-entry
// option overrides.
type SubsectionEntry struct {
	Path    string
	Options Options
}

// Subsections is the caller input for subvolumes and targets. Two forms are
// accepted:
//
//	subvolumes: ["/mnt/data/docs", "/mnt/data/pics"]     # shorthand
//	subvolumes:
//	  /mnt/data/docs: { snapshot_create: onchange }      # full form
//
// The shorthand normalizes to the full form with empty override sets.
type Subsections []SubsectionEntry

// UnmarshalYAML accepts either a sequence of path strings or a mapping of
// path to option overrides (a null value meaning no overrides).
func (s *Subsections) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		seen := map[string]bool{}
		entries := make(Subsections, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return errors.Wrapf(errors.ErrInvalidShape,
					"line %d: list entries must be path strings", item.Line)
			}
			if seen[item.Value] {
				return errors.Newf("line %d: duplicate path %q", item.Line, item.Value)
			}
			seen[item.Value] = true
			entries = append(entries, SubsectionEntry{Path: item.Value})
		}
		*s = entries
		return nil

	case yaml.MappingNode:
		seen := map[string]bool{}
		entries := make(Subsections, 0, len(node.Content)/2)
		for i := 0; i < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if seen[key.Value] {
				return errors.Newf("line %d: duplicate path %q", key.Line, key.Value)
			}
			seen[key.Value] = true
			entry := SubsectionEntry{Path: key.Value}
			switch {
			case value.Kind == yaml.ScalarNode && value.Tag == "!!null":
				// no overrides
			case value.Kind == yaml.MappingNode:
				if err := entry.Options.UnmarshalYAML(value); err != nil {
					return err
				}
			default:
				return errors.Wrapf(errors.ErrInvalidShape,
					"line %d: %q must map to option overrides or be empty", value.Line, key.Value)
			}
			entries = append(entries, entry)
		}
		*s = entries
		return nil

	default:
		return errors.Wrapf(errors.ErrInvalidShape,
			"line %d: expected a list of paths or a mapping of path to overrides", node.Line)
	}
}

// Volume declares one btrfs volume: its option overrides and the subvolumes
// to snapshot and targets to send to.
type Volume struct {
	Path       string
	Options    Options
	Subvolumes Subsections
	Targets    Subsections
}

// Instance is one independently scheduled btrbk configuration.
type Instance struct {
	Name     string
	Schedule string
	Options  Options // instance-wide global overrides
	Volumes  []Volume
}

// SSHKey is one authorized public key with the filter roles it is allowed.
type SSHKey struct {
	Key   string   `yaml:"key"`
	Roles []string `yaml:"roles"`
}

// Decl is the full declaration file: the named instances plus the SSH keys
// permitted to talk to the btrbk service account.
type Decl struct {
	Instances []Instance
	SSHKeys   []SSHKey
}

// Get returns the instance with the given name.
func (d *Decl) Get(name string) (*Instance, error) {
	for i := range d.Instances {
		if d.Instances[i].Name == name {
			return &d.Instances[i], nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "%q", name)
}

// Names returns the declared instance names in declaration order.
func (d *Decl) Names() []string {
	names := make([]string, len(d.Instances))
	for i, inst := range d.Instances {
		names[i] = inst.Name
	}
	return names
}
