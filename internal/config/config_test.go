package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestInit(t *testing.T) {
	// Reset viper state
	viper.Reset()

	Init()

	// Check defaults are set
	if viper.GetInt("version") != 1 {
		t.Errorf("expected version default 1, got %d", viper.GetInt("version"))
	}
	if got := viper.GetString("btrbk_path"); got != "/usr/bin/btrbk" {
		t.Errorf("btrbk_path default = %q", got)
	}
	if got := viper.GetString("deploy_root"); got != "/" {
		t.Errorf("deploy_root default = %q", got)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	viper.Reset()
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })

	Init()

	// Load with no config file should not error
	cfg, err := Load("")
	if err != nil {
		t.Errorf("Load() with no config file should not error: %v", err)
	}
	if cfg == nil {
		t.Error("expected config to be returned")
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	viper.Reset()

	// Create temp config file
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := []byte("btrbk_path: /opt/btrbk/bin/btrbk\ndeclaration: /etc/btrbkgen/btrbk.yaml\n")
	if err := os.WriteFile(configPath, content, 0600); err != nil {
		t.Fatal(err)
	}

	Init()

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.BtrbkPath != "/opt/btrbk/bin/btrbk" {
		t.Errorf("BtrbkPath = %q", cfg.BtrbkPath)
	}
	if cfg.Declaration != "/etc/btrbkgen/btrbk.yaml" {
		t.Errorf("Declaration = %q", cfg.Declaration)
	}
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	viper.Reset()
	Init()

	// Load with non-existent config file should error
	_, err := Load("/non/existent/path/config.yaml")
	if err == nil {
		t.Error("Load() with non-existent explicit path should error")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Version: 1, BtrbkPath: "/usr/bin/btrbk", DeployRoot: "/"}
	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}

	bad := &Config{Version: 0, BtrbkPath: "bad\x00path"}
	errs := Validate(bad)
	if len(errs) != 2 {
		t.Fatalf("Validate() returned %d errors, want 2: %v", len(errs), errs)
	}
}
