package taxonomy

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("expected defaults, got %#v", cfg)
	}
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, "num_clusters: 12\nseed: 99\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.NumClusters != 12 || cfg.Seed != 99 {
		t.Fatalf("expected overrides applied, got %#v", cfg)
	}
	if cfg.MinPosterior != 0.1 || cfg.MaxIter != 50 {
		t.Fatalf("expected untouched fields to keep defaults, got %#v", cfg)
	}
}

func TestLoadConfig_RejectsInvalidValues(t *testing.T) {
	cases := []string{
		"num_clusters: 0\n",
		"min_posterior: 0\n",
		"min_posterior: 1.5\n",
	}
	for _, c := range cases {
		if _, err := LoadConfig(writeConfig(t, c)); err == nil {
			t.Fatalf("expected an error for %q", c)
		}
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
