package deploy

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/mkeller/btrbkgen/internal/errors"
	"github.com/mkeller/btrbkgen/internal/paths"
)

// ManifestName is the manifest file name inside the deployed etc directory.
const ManifestName = "manifest.toml"

// ManifestFile records one deployed file and the checksum of its content at
// deployment time.
type ManifestFile struct {
	Path   string `toml:"path"`
	SHA256 string `toml:"sha256"`
}

// ManifestInstance records the artifacts belonging to one instance.
type ManifestInstance struct {
	Name     string `toml:"name"`
	Schedule string `toml:"schedule"`
	Conf     string `toml:"conf"`
	Service  string `toml:"service"`
	Timer    string `toml:"timer"`
}

// Manifest is the bookkeeping record a deployment leaves behind. The status
// command reads it back to detect drift between the declaration, the
// manifest and the files on disk.
type Manifest struct {
	Version   int                `toml:"version"`
	Generated string             `toml:"generated,omitempty"`
	Instances []ManifestInstance `toml:"instances"`
	Files     []ManifestFile     `toml:"files"`
}

// NewManifest returns an empty manifest at the current format version.
func NewManifest() *Manifest {
	return &Manifest{Version: 1}
}

// Checksum returns the hex SHA-256 of content.
func Checksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// AddFile records a deployed file and its content checksum.
func (m *Manifest) AddFile(path, content string) {
	m.Files = append(m.Files, ManifestFile{Path: path, SHA256: Checksum(content)})
}

// AddInstance records a deployed instance.
func (m *Manifest) AddInstance(dep Deployed) {
	m.Instances = append(m.Instances, ManifestInstance{
		Name:     dep.Name,
		Schedule: dep.Schedule,
		Conf:     dep.Conf,
		Service:  dep.Service,
		Timer:    dep.Timer,
	})
}

// Lookup returns the recorded checksum for path.
func (m *Manifest) Lookup(path string) (string, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f.SHA256, true
		}
	}
	return "", false
}

// Write marshals the manifest to path.
func (m *Manifest) Write(path string) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encoding manifest")
	}
	if err := paths.EnsureDir(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// ReadManifest loads a manifest written by a previous deployment.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return &m, nil
}
