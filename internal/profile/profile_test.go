package profile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_Lookup_Builtins(t *testing.T) {
	t.Parallel()

	s := NewStore()

	tests := []struct {
		name     string
		query    string
		wantOK   bool
		wantName string
	}{
		{name: "exact", query: "PLA", wantOK: true, wantName: "PLA"},
		{name: "case-insensitive", query: "petg", wantOK: true, wantName: "PETG"},
		{name: "surrounding whitespace", query: "  abs ", wantOK: true, wantName: "ABS"},
		{name: "unknown material", query: "NYLON"},
		{name: "empty name", query: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p, ok := s.Lookup(tc.query)
			if ok != tc.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tc.query, ok, tc.wantOK)
			}
			if ok && p.Name != tc.wantName {
				t.Fatalf("profile = %+v, want name %s", p, tc.wantName)
			}
		})
	}
}

func TestStore_LoadFile(t *testing.T) {
	t.Parallel()

	t.Run("custom entries shadow and extend built-ins", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "profiles.yml")
		doc := `
- name: PLA
  min_nozzle_temp: 200
  max_nozzle_temp: 230
- name: WOOD
  min_nozzle_temp: 175
  max_nozzle_temp: 220
`
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}

		s := NewStore()
		if err := s.LoadFile(path); err != nil {
			t.Fatalf("LoadFile returned error: %v", err)
		}

		pla, ok := s.Lookup("PLA")
		if !ok || pla.MinNozzleTemp != 200 {
			t.Fatalf("custom PLA = %+v, want shadowed minimum 200", pla)
		}
		wood, ok := s.Lookup("wood")
		if !ok || wood.MinNozzleTemp != 175 {
			t.Fatalf("WOOD = %+v", wood)
		}
		// Untouched built-ins remain.
		if _, ok := s.Lookup("TPU"); !ok {
			t.Fatal("built-in TPU lost after loading customs")
		}
	})

	t.Run("entry without a name fails", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "profiles.yml")
		if err := os.WriteFile(path, []byte("- min_nozzle_temp: 200\n"), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}

		if err := NewStore().LoadFile(path); err == nil {
			t.Fatal("expected an error for a nameless profile")
		}
	})

	t.Run("missing file fails", func(t *testing.T) {
		t.Parallel()
		if err := NewStore().LoadFile(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
			t.Fatal("expected an error for a missing file")
		}
	})
}

func TestStore_Names(t *testing.T) {
	t.Parallel()

	names := NewStore().Names()
	if len(names) != 4 {
		t.Fatalf("names = %v, want the 4 built-ins", names)
	}
}
