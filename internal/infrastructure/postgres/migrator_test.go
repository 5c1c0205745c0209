package postgres

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestMigrationsArePaired(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(files) == 0 {
		t.Fatalf("expected migrations to exist")
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, f := range files {
		base := filepath.Base(f)
		switch {
		case strings.HasSuffix(base, ".up.sql"):
			ups[strings.TrimSuffix(base, ".up.sql")] = true
		case strings.HasSuffix(base, ".down.sql"):
			downs[strings.TrimSuffix(base, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", base)
		}
	}

	names := make([]string, 0, len(ups))
	for name := range ups {
		if !downs[name] {
			t.Errorf("migration %s has no down file", name)
		}
		names = append(names, name)
	}
	for name := range downs {
		if !ups[name] {
			t.Errorf("migration %s has no up file", name)
		}
	}

	sort.Strings(names)
	for i, name := range names {
		want := i + 1
		got, err := strconv.Atoi(strings.SplitN(name, "_", 2)[0])
		if err != nil || got != want {
			t.Errorf("migration %s out of sequence, want %06d", name, want)
		}
	}
}

func TestMigrationsBackInvariants(t *testing.T) {
	participations, err := os.ReadFile(filepath.Join("migrations", "000003_create_participations.up.sql"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(participations), "WHERE status IN ('PENDING', 'ACCEPTED')") {
		t.Errorf("expected partial unique index on live participations")
	}

	listings, err := os.ReadFile(filepath.Join("migrations", "000002_create_listings.up.sql"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(string(listings), "accepted_count BETWEEN 0 AND capacity") {
		t.Errorf("expected capacity bounds check")
	}
}

func TestMigratorBadSource(t *testing.T) {
	m := NewMigrator("postgres://localhost:1/none?sslmode=disable", filepath.Join(t.TempDir(), "missing"), zerolog.Nop())

	if err := m.Up(); err == nil {
		t.Fatalf("expected error for missing migrations directory")
	}
}
