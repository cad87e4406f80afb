package instance

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkeller/btrbkgen/internal/errors"
)

const declDaily = `
instances:
  daily:
    schedule: "daily"
    options:
      snapshot_preserve: 14d
      snapshot_preserve_min: 2d
    volumes:
      /mnt/data:
        options:
          snapshot_dir: .snapshots
        subvolumes: ["/mnt/data/docs", "/mnt/data/pics"]
        targets:
          /backup:
            target_preserve: 20d
ssh:
  allowed_keys:
    - key: "ssh-ed25519 AAAAC3Nz backup@remote"
      roles: [source, info]
`

func TestParse(t *testing.T) {
	decl, err := Parse([]byte(declDaily))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if len(decl.Instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(decl.Instances))
	}
	inst := decl.Instances[0]
	if inst.Name != "daily" {
		t.Errorf("Name = %q", inst.Name)
	}
	if inst.Schedule != "daily" {
		t.Errorf("Schedule = %q", inst.Schedule)
	}

	// declaration order is preserved
	if inst.Options[0].Key != "snapshot_preserve" || inst.Options[1].Key != "snapshot_preserve_min" {
		t.Errorf("option order not preserved: %v", inst.Options)
	}

	vol := inst.Volumes[0]
	if vol.Path != "/mnt/data" {
		t.Errorf("volume path = %q", vol.Path)
	}
	if len(vol.Subvolumes) != 2 || vol.Subvolumes[0].Path != "/mnt/data/docs" {
		t.Errorf("subvolumes = %v", vol.Subvolumes)
	}
	if len(vol.Subvolumes[0].Options) != 0 {
		t.Error("shorthand subvolume should have no overrides")
	}
	if got, _ := vol.Targets[0].Options.Get("target_preserve"); got != "20d" {
		t.Errorf("target override = %q", got)
	}

	if len(decl.SSHKeys) != 1 || decl.SSHKeys[0].Roles[0] != "source" {
		t.Errorf("ssh keys = %v", decl.SSHKeys)
	}
}

func TestParse_ShorthandEquivalence(t *testing.T) {
	shorthand := `
instances:
  i:
    schedule: daily
    volumes:
      /v:
        subvolumes: ["/a", "/b"]
`
	full := `
instances:
  i:
    schedule: daily
    volumes:
      /v:
        subvolumes:
          /a:
          /b: {}
`
	a, err := Parse([]byte(shorthand))
	if err != nil {
		t.Fatalf("shorthand: %v", err)
	}
	b, err := Parse([]byte(full))
	if err != nil {
		t.Fatalf("full form: %v", err)
	}

	sa, sb := a.Instances[0].Volumes[0].Subvolumes, b.Instances[0].Volumes[0].Subvolumes
	if len(sa) != 2 || len(sb) != 2 {
		t.Fatalf("lengths: %d, %d", len(sa), len(sb))
	}
	for i := range sa {
		if sa[i].Path != sb[i].Path {
			t.Errorf("entry %d: %q vs %q", i, sa[i].Path, sb[i].Path)
		}
		if len(sa[i].Options) != 0 || len(sb[i].Options) != 0 {
			t.Errorf("entry %d: expected empty override sets", i)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown top-level field",
			yaml: "instances:\n  i:\n    schedule: daily\n    volumes: {/v: }\nbogus: 1\n",
			want: `unknown field "bogus"`,
		},
		{
			name: "unknown instance field",
			yaml: "instances:\n  i:\n    schedule: daily\n    cron: daily\n",
			want: `unknown field "cron"`,
		},
		{
			name: "missing schedule",
			yaml: "instances:\n  i:\n    volumes: {/v: }\n",
			want: "schedule is required",
		},
		{
			name: "invalid instance name",
			yaml: "instances:\n  \"bad name\":\n    schedule: daily\n    volumes: {/v: }\n",
			want: "invalid instance name",
		},
		{
			name: "duplicate instance",
			yaml: "instances:\n  i:\n    schedule: daily\n    volumes: {/v: }\n  i:\n    schedule: weekly\n    volumes: {/v: }\n",
			want: "duplicate instance",
		},
		{
			name: "no instances",
			yaml: "instances: {}\n",
			want: "no instances",
		},
		{
			name: "subsection scalar shape",
			yaml: "instances:\n  i:\n    schedule: daily\n    volumes:\n      /v:\n        subvolumes: 42\n",
			want: "list of paths or a mapping",
		},
		{
			name: "duplicate subvolume in list form",
			yaml: "instances:\n  i:\n    schedule: daily\n    volumes:\n      /v:\n        subvolumes: [\"/a\", \"/a\"]\n",
			want: `duplicate path "/a"`,
		},
		{
			name: "duplicate subvolume in mapping form",
			yaml: "instances:\n  i:\n    schedule: daily\n    volumes:\n      /v:\n        subvolumes:\n          /a: {snapshot_preserve: 7d}\n          /a: {snapshot_preserve: 14d}\n",
			want: `duplicate path "/a"`,
		},
		{
			name: "duplicate target",
			yaml: "instances:\n  i:\n    schedule: daily\n    volumes:\n      /v:\n        targets: [\"/backup\", \"/backup\"]\n",
			want: `duplicate path "/backup"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestParse_ShapeErrorsAreSentinel(t *testing.T) {
	_, err := Parse([]byte("instances:\n  i:\n    schedule: daily\n    volumes:\n      /v:\n        targets: true\n"))
	if !errors.Is(err, errors.ErrInvalidShape) {
		t.Errorf("want ErrInvalidShape, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "btrbk.yaml")
	if err := os.WriteFile(path, []byte(declDaily), 0o600); err != nil {
		t.Fatal(err)
	}

	decl, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if _, err := decl.Get("daily"); err != nil {
		t.Errorf("Get(daily) error: %v", err)
	}
	if _, err := decl.Get("hourly"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get(hourly) = %v, want ErrNotFound", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
