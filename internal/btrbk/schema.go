package btrbk

// SectionKind is the nesting role of a configuration node. It determines
// which options are legal for the node.
type SectionKind int

const (
	// SectionGlobal is the implicit top level of a btrbk.conf file.
	SectionGlobal SectionKind = iota
	// SectionVolume is a "volume <directory>" section.
	SectionVolume
	// SectionSubvolume is a "subvolume <path>" section.
	SectionSubvolume
	// SectionTarget is a "target <path>" section.
	SectionTarget
)

func (k SectionKind) String() string {
	switch k {
	case SectionGlobal:
		return "global"
	case SectionVolume:
		return "volume"
	case SectionSubvolume:
		return "subvolume"
	case SectionTarget:
		return "target"
	default:
		return "unknown"
	}
}

// Keyword returns the section header keyword, or "" for the global level.
func (k SectionKind) Keyword() string {
	if k == SectionGlobal {
		return ""
	}
	return k.String()
}

// processOptions are only meaningful for the whole btrbk run and therefore
// legal at the global level only.
var processOptions = []string{
	"lockfile",
	"transaction_log",
	"transaction_syslog",
	"timestamp_format",
}

// snapshotStorageOptions describe where and when snapshots are created on
// the source side; they make no sense for a destination.
var snapshotStorageOptions = []string{
	"snapshot_dir",
	"snapshot_create",
	"snapshot_preserve",
	"snapshot_preserve_min",
	"noauto",
	"preserve_day_of_week",
	"preserve_hour_of_day",
}

// sectionOptions maps every section kind to its legal option name set.
// Built once from the catalog at process start.
var sectionOptions = func() map[SectionKind]map[string]bool {
	all := make(map[string]bool, len(catalog))
	for _, o := range catalog {
		all[o.Name] = true
	}

	minus := func(set map[string]bool, names ...string) map[string]bool {
		out := make(map[string]bool, len(set))
		for k := range set {
			out[k] = true
		}
		for _, n := range names {
			delete(out, n)
		}
		return out
	}
	plus := func(set map[string]bool, names ...string) map[string]bool {
		out := minus(set)
		for _, n := range names {
			out[n] = true
		}
		return out
	}

	global := minus(all, "snapshot_name")
	volume := minus(global, processOptions...)
	subvolume := plus(volume, "snapshot_name")
	target := minus(volume, snapshotStorageOptions...)

	return map[SectionKind]map[string]bool{
		SectionGlobal:    global,
		SectionVolume:    volume,
		SectionSubvolume: subvolume,
		SectionTarget:    target,
	}
}()

// OptionsFor returns the option names legal for the given section kind.
func OptionsFor(kind SectionKind) map[string]bool {
	return sectionOptions[kind]
}

// Allowed reports whether the named option is legal at the given kind.
func Allowed(kind SectionKind, name string) bool {
	return sectionOptions[kind][name]
}
