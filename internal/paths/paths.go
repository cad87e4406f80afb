package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// Default deployment locations, relative to the deployment root.
const (
	// EtcDir holds the rendered btrbk configuration files.
	EtcDir = "etc/btrbk"

	// UnitDir holds the generated systemd service and timer units.
	UnitDir = "etc/systemd/system"

	// SysusersDir holds the systemd-sysusers declaration for the service account.
	SysusersDir = "etc/sysusers.d"

	// TmpfilesDir holds the systemd-tmpfiles declaration for the state directory.
	TmpfilesDir = "etc/tmpfiles.d"

	// SudoersDir holds the sudo policy fragment for the service account.
	SudoersDir = "etc/sudoers.d"

	// StateDir is the btrbk service account home and state directory.
	StateDir = "var/lib/btrbk"
)

// Sentinel errors for path resolution.
var (
	// ErrHomeDirNotFound indicates the user's home directory could not be determined.
	ErrHomeDirNotFound = errors.New("home directory not found")

	// ErrInvalidPath indicates the provided path is malformed or invalid.
	ErrInvalidPath = errors.New("invalid path")
)

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// StateDirPerm is the permission for the btrbk state directory.
const StateDirPerm = 0o700

// ConfFilePerm is the permission for rendered configuration files.
const ConfFilePerm = 0o644

// UnitFilePerm is the permission for generated systemd units.
const UnitFilePerm = 0o644

// SudoersFilePerm is the permission sudo requires for policy fragments.
const SudoersFilePerm = 0o440

// ConfigHome returns the user configuration directory for btrbkgen
// (typically ~/.config/btrbkgen).
func ConfigHome() string {
	return filepath.Join(xdg.ConfigHome, "btrbkgen")
}

// Under joins path elements below a deployment root. An empty root means
// the filesystem root.
func Under(root string, elems ...string) string {
	if root == "" {
		root = "/"
	}
	return filepath.Join(append([]string{root}, elems...)...)
}

// EnsureDir creates the directory and any necessary parents with the
// specified permissions. If perm is 0, DefaultDirPerm (0700) is used.
func EnsureDir(path string, perm os.FileMode) error {
	if path == "" {
		return ErrInvalidPath
	}
	if perm == 0 {
		perm = DefaultDirPerm
	}
	if err := os.MkdirAll(path, perm); err != nil {
		return errors.Wrapf(err, "creating directory %s", path)
	}
	return nil
}
