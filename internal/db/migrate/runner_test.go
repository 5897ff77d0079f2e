package migrate

import (
	"io/fs"
	"strings"
	"testing"

	"task-board/backend/internal/db"
)

func TestRun_EmptyDSN(t *testing.T) {
	for _, dsn := range []string{"", "   "} {
		err := Run(dsn, Up)
		if err == nil {
			t.Fatalf("Run(%q) should return error", dsn)
		}
		if !strings.Contains(err.Error(), "DATABASE_URL is not set") {
			t.Errorf("error = %q, want DATABASE_URL hint", err.Error())
		}
	}
}

func TestParseDirection(t *testing.T) {
	testCases := []struct {
		in      string
		wantErr bool
	}{
		{"up", false},
		{"down", false},
		{"", true},
		{"UP", true},
		{"sideways", true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			d, err := ParseDirection(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Errorf("ParseDirection(%q) should return error", tc.in)
				}
				return
			}
			if err != nil || string(d) != tc.in {
				t.Errorf("ParseDirection(%q) = %q, %v", tc.in, d, err)
			}
		})
	}
}

func TestRun_InvalidDirection(t *testing.T) {
	err := Run("postgres://localhost/test", Direction("left"))
	if err == nil || !strings.Contains(err.Error(), "direction") {
		t.Errorf("Run err = %v, want direction error", err)
	}
}

func TestRun_InvalidDSN(t *testing.T) {
	for _, dsn := range []string{"invalid-dsn", "://localhost/test"} {
		if err := Run(dsn, Up); err == nil {
			t.Errorf("Run with invalid DSN %q should return error", dsn)
		}
	}
}

func TestMigrationFS_HasPairedFiles(t *testing.T) {
	entries, err := fs.ReadDir(db.MigrationFS, "migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Errorf("migrations: %d up, %d down; want matching non-zero counts", ups, downs)
	}
}
