package btrbk

import (
	"strconv"

	"github.com/mkeller/btrbkgen/internal/errors"
)

// ValueKind classifies the value an option accepts.
type ValueKind int

const (
	// KindString accepts any non-empty string.
	KindString ValueKind = iota
	// KindEnum accepts one of a fixed set of words.
	KindEnum
	// KindInt accepts an integer within a range.
	KindInt
	// KindBool accepts yes or no.
	KindBool
)

// Option describes one recognized btrbk configuration key.
type Option struct {
	Name string
	Kind ValueKind
	// Enum values, for KindEnum.
	Values []string
	// Min and Max bound KindInt values.
	Min, Max int
	// Doc is a one-line description.
	Doc string
}

// CheckValue reports whether raw is acceptable for the option's kind.
func (o Option) CheckValue(raw string) error {
	switch o.Kind {
	case KindString:
		if raw == "" {
			return errors.Wrapf(errors.ErrInvalidValue, "%s: empty value", o.Name)
		}
	case KindEnum:
		for _, v := range o.Values {
			if raw == v {
				return nil
			}
		}
		return errors.Wrapf(errors.ErrInvalidValue, "%s: %q is not one of %v", o.Name, raw, o.Values)
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidValue, "%s: %q is not an integer", o.Name, raw)
		}
		if n < o.Min || n > o.Max {
			return errors.Wrapf(errors.ErrInvalidValue, "%s: %d outside %d..%d", o.Name, n, o.Min, o.Max)
		}
	case KindBool:
		if raw != "yes" && raw != "no" {
			return errors.Wrapf(errors.ErrInvalidValue, "%s: %q is not yes or no", o.Name, raw)
		}
	}
	return nil
}

func enum(values ...string) []string { return values }

// catalog is the full registry of recognized options. Fixed at process
// start; never mutated.
var catalog = []Option{
	{Name: "timestamp_format", Kind: KindEnum, Values: enum("short", "long", "long-iso"),
		Doc: "timestamp format used in snapshot names"},
	{Name: "snapshot_dir", Kind: KindString,
		Doc: "directory (relative to the volume) where snapshots are created"},
	{Name: "snapshot_name", Kind: KindString,
		Doc: "base name for snapshots of a subvolume"},
	{Name: "snapshot_create", Kind: KindEnum, Values: enum("always", "onchange", "ondemand", "no"),
		Doc: "when to create a new snapshot"},
	{Name: "snapshot_preserve", Kind: KindString,
		Doc: "retention policy for snapshots (e.g. 14d 4w)"},
	{Name: "snapshot_preserve_min", Kind: KindString,
		Doc: "minimum retention for snapshots regardless of policy"},
	{Name: "target_preserve", Kind: KindString,
		Doc: "retention policy for backups on the target"},
	{Name: "target_preserve_min", Kind: KindString,
		Doc: "minimum retention for backups on the target"},
	{Name: "archive_preserve", Kind: KindString,
		Doc: "retention policy for archived backups"},
	{Name: "archive_preserve_min", Kind: KindString,
		Doc: "minimum retention for archived backups"},
	{Name: "incremental", Kind: KindEnum, Values: enum("yes", "no", "strict"),
		Doc: "whether to send incremental backups"},
	{Name: "preserve_day_of_week", Kind: KindEnum,
		Values: enum("monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"),
		Doc: "day on which weekly/monthly retention is anchored"},
	{Name: "preserve_hour_of_day", Kind: KindInt, Min: 0, Max: 23,
		Doc: "hour after which a snapshot counts as daily"},
	{Name: "noauto", Kind: KindBool,
		Doc: "exclude the section from regular runs"},
	{Name: "backend", Kind: KindEnum, Values: enum("btrfs-progs", "btrfs-progs-btrbk", "btrfs-progs-sudo"),
		Doc: "backend used for btrfs commands"},
	{Name: "group", Kind: KindString,
		Doc: "user-defined group tag for filtering runs"},
	{Name: "ssh_user", Kind: KindString,
		Doc: "remote user for ssh targets"},
	{Name: "ssh_identity", Kind: KindString,
		Doc: "path to the ssh private key"},
	{Name: "ssh_compression", Kind: KindBool,
		Doc: "enable ssh transport compression"},
	{Name: "ssh_cipher_spec", Kind: KindString,
		Doc: "cipher specification passed to ssh"},
	{Name: "stream_buffer", Kind: KindString,
		Doc: "buffer size for send/receive streams (e.g. 256m)"},
	{Name: "stream_compress", Kind: KindEnum,
		Values: enum("gzip", "pigz", "bzip2", "pbzip2", "xz", "lzo", "lz4", "zstd", "no"),
		Doc: "compress the send stream in transit"},
	{Name: "stream_compress_level", Kind: KindInt, Min: 1, Max: 19,
		Doc: "compression level for stream_compress"},
	{Name: "rate_limit", Kind: KindString,
		Doc: "bandwidth limit for the send stream (e.g. 10m)"},
	{Name: "lockfile", Kind: KindString,
		Doc: "lockfile checked before running"},
	{Name: "transaction_log", Kind: KindString,
		Doc: "path of the transaction log"},
	{Name: "transaction_syslog", Kind: KindString,
		Doc: "syslog facility for transaction logging"},
}

// index is built once from the catalog.
var index = func() map[string]Option {
	m := make(map[string]Option, len(catalog))
	for _, o := range catalog {
		m[o.Name] = o
	}
	return m
}()

// Lookup returns the catalog entry for name.
func Lookup(name string) (Option, bool) {
	o, ok := index[name]
	return o, ok
}

// Catalog returns every recognized option, in catalog order.
func Catalog() []Option {
	out := make([]Option, len(catalog))
	copy(out, catalog)
	return out
}
