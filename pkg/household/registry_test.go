package household

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleRegistry = `
households:
  - id: home-1
    name: Virtanen
    latitude: 60.1695
    longitude: 24.9354
    rooms: [kitchen, bedroom, living_room, bathroom]
  - id: home-2
    name: Korhonen
    latitude: 61.4978
    longitude: 23.7610
    rooms: [studio]
`

func TestParse(t *testing.T) {
	registry, err := Parse([]byte(sampleRegistry))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if registry.Len() != 2 {
		t.Fatalf("expected 2 households, got %d", registry.Len())
	}

	home, ok := registry.Get("home-1")
	if !ok {
		t.Fatal("expected home-1 to exist")
	}
	if home.Name != "Virtanen" {
		t.Errorf("expected Virtanen, got %s", home.Name)
	}
	if len(home.Rooms) != 4 {
		t.Errorf("expected 4 rooms, got %d", len(home.Rooms))
	}
	if home.Latitude != 60.1695 {
		t.Errorf("unexpected latitude %v", home.Latitude)
	}

	if _, ok := registry.Get("home-404"); ok {
		t.Error("expected lookup miss for unknown household")
	}

	all := registry.All()
	if len(all) != 2 || all[0].ID != "home-1" || all[1].ID != "home-2" {
		t.Errorf("expected file order, got %v", all)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "households: ["},
		{"empty id", "households:\n  - name: NoID\n"},
		{"duplicate id", "households:\n  - id: home-1\n  - id: home-1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "households.yaml")
	if err := os.WriteFile(path, []byte(sampleRegistry), 0o644); err != nil {
		t.Fatal(err)
	}

	registry, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if registry.Len() != 2 {
		t.Errorf("expected 2 households, got %d", registry.Len())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
