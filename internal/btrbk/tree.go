package btrbk

import (
	"strings"

	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/instance"
)

// Assignment is one "key value" line in a section.
type Assignment struct {
	Key   string
	Value string
}

// Node is one section of a btrbk configuration: scalar assignments plus
// child sections, both in insertion order. Nodes are built once per render
// cycle and not mutated afterwards.
type Node struct {
	Kind        SectionKind
	Name        string // section header argument; empty at the global level
	Assignments []Assignment
	Children    []*Node
}

// defaultBackend is injected into every section before caller overrides
// merge over it. btrbk runs as an unprivileged service account, so btrfs
// commands go through sudo.
const defaultBackend = "btrfs-progs-sudo"

// defaults returns the implicit assignments for a section of the given kind.
func defaults(SectionKind) []Assignment {
	return []Assignment{{Key: "backend", Value: defaultBackend}}
}

// Build constructs the configuration tree for one instance: a global root
// with one volume child per declared volume, each carrying its subvolume
// and target children. Every assignment is checked against the section
// schema and the option catalog before any text is rendered.
func Build(inst *instance.Instance) (*Node, error) {
	root, err := newNode(SectionGlobal, "", inst.Options, "global")
	if err != nil {
		return nil, err
	}

	for _, vol := range inst.Volumes {
		volPath := "volume " + vol.Path
		volNode, err := newNode(SectionVolume, vol.Path, vol.Options, volPath)
		if err != nil {
			return nil, err
		}

		for _, sub := range vol.Subvolumes {
			child, err := newNode(SectionSubvolume, sub.Path, sub.Options,
				volPath+" > subvolume "+sub.Path)
			if err != nil {
				return nil, err
			}
			volNode.Children = append(volNode.Children, child)
		}
		for _, tgt := range vol.Targets {
			child, err := newNode(SectionTarget, tgt.Path, tgt.Options,
				volPath+" > target "+tgt.Path)
			if err != nil {
				return nil, err
			}
			volNode.Children = append(volNode.Children, child)
		}

		root.Children = append(root.Children, volNode)
	}

	return root, nil
}

// newNode merges the section defaults with the caller's overrides (caller
// wins) and validates every resulting assignment against the schema.
func newNode(kind SectionKind, name string, overrides instance.Options, nodePath string) (*Node, error) {
	node := &Node{Kind: kind, Name: name}

	for _, def := range defaults(kind) {
		if _, overridden := overrides.Get(def.Key); overridden {
			continue
		}
		node.Assignments = append(node.Assignments, def)
	}
	for _, p := range overrides {
		node.Assignments = append(node.Assignments, Assignment{Key: p.Key, Value: p.Value})
	}

	for _, a := range node.Assignments {
		opt, known := Lookup(a.Key)
		if !known {
			return nil, errors.Wrapf(errors.ErrUnknownOption,
				"%s: %q", nodePath, a.Key)
		}
		if !Allowed(kind, a.Key) {
			return nil, errors.Wrapf(errors.ErrOptionNotAllowed,
				"%s: %q is not valid in a %s section", nodePath, a.Key, kind)
		}
		if err := opt.CheckValue(a.Value); err != nil {
			return nil, errors.Wrapf(err, "%s", nodePath)
		}
	}

	return node, nil
}

// Path renders a node path for diagnostics, e.g.
// "volume /mnt/data > subvolume /mnt/data/docs".
func (n *Node) Path() string {
	if n.Kind == SectionGlobal {
		return "global"
	}
	return strings.TrimSpace(n.Kind.String() + " " + n.Name)
}
