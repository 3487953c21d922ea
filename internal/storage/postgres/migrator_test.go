package postgres

import (
	"strings"
	"testing"
	"testing/fstest"
)

func testMigrationsFS() fstest.MapFS {
	return fstest.MapFS{
		"sql/migrations/0001_init.up.sql":   {Data: []byte("CREATE TABLE test_a (id INT);")},
		"sql/migrations/0001_init.down.sql": {Data: []byte("DROP TABLE IF EXISTS test_a;")},
		"sql/migrations/0002_more.up.sql":   {Data: []byte("CREATE TABLE test_b (id INT);")},
		"sql/migrations/0002_more.down.sql": {Data: []byte("DROP TABLE IF EXISTS test_b;")},
		"sql/migrations/0003_last.up.sql":   {Data: []byte("CREATE TABLE test_c (id INT);")},
		"sql/migrations/0003_last.down.sql": {Data: []byte("DROP TABLE IF EXISTS test_c;")},
	}
}

func TestLoadMigrationsFromFS_Success(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrationsFromFS(testMigrationsFS())
	if err != nil {
		t.Fatalf("loadMigrationsFromFS failed: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "init" {
		t.Fatalf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[2].label() != "3_last" {
		t.Fatalf("unexpected label: %s", migrations[2].label())
	}
}

func TestLoadMigrationsFromFS_Embedded(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrationsFromFS(migrationsFS)
	if err != nil {
		t.Fatalf("load embedded migrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("expected 2 embedded migrations, got %d", len(migrations))
	}
	if !strings.Contains(migrations[0].UpSQL, "CREATE TABLE IF NOT EXISTS menus") {
		t.Fatalf("first migration must create menus table, got %q", migrations[0].UpSQL)
	}
	if !strings.Contains(migrations[1].UpSQL, "outbox_messages") {
		t.Fatalf("second migration must create outbox table, got %q", migrations[1].UpSQL)
	}
}

func TestLoadMigrationsFromFS_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		fs      fstest.MapFS
		wantMsg string
	}{
		"missing down": {
			fs: fstest.MapFS{
				"sql/migrations/0001_init.up.sql": {Data: []byte("CREATE TABLE a (id INT);")},
			},
			wantMsg: "both up and down",
		},
		"invalid file name": {
			fs: fstest.MapFS{
				"sql/migrations/not_a_migration.sql": {Data: []byte("SELECT 1;")},
			},
			wantMsg: "invalid migration file name",
		},
		"empty body": {
			fs: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":   {Data: []byte("   \n")},
				"sql/migrations/0001_init.down.sql": {Data: []byte("DROP TABLE a;")},
			},
			wantMsg: "empty",
		},
		"name mismatch": {
			fs: fstest.MapFS{
				"sql/migrations/0001_init.up.sql":    {Data: []byte("CREATE TABLE a (id INT);")},
				"sql/migrations/0001_other.down.sql": {Data: []byte("DROP TABLE a;")},
			},
			wantMsg: "name mismatch",
		},
		"no files": {
			fs:      fstest.MapFS{},
			wantMsg: "no migration files",
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := loadMigrationsFromFS(tc.fs)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("expected error containing %q, got %v", tc.wantMsg, err)
			}
		})
	}
}

func TestPlanMigrations(t *testing.T) {
	t.Parallel()

	migrations, err := loadMigrationsFromFS(testMigrationsFS())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	versions := func(plan []migration) []int64 {
		out := make([]int64, 0, len(plan))
		for _, m := range plan {
			out = append(out, m.Version)
		}
		return out
	}
	equal := func(got, want []int64) bool {
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}

	plan, err := planMigrations(migrations, map[int64]bool{1: true}, migrationUp, 0)
	if err != nil {
		t.Fatalf("plan up: %v", err)
	}
	if got := versions(plan); !equal(got, []int64{2, 3}) {
		t.Fatalf("unexpected up plan: %v", got)
	}

	plan, err = planMigrations(migrations, map[int64]bool{}, migrationUp, 1)
	if err != nil {
		t.Fatalf("plan up with steps: %v", err)
	}
	if got := versions(plan); !equal(got, []int64{1}) {
		t.Fatalf("unexpected limited up plan: %v", got)
	}

	plan, err = planMigrations(migrations, map[int64]bool{1: true, 2: true, 3: true}, migrationDown, 2)
	if err != nil {
		t.Fatalf("plan down: %v", err)
	}
	if got := versions(plan); !equal(got, []int64{3, 2}) {
		t.Fatalf("unexpected down plan: %v", got)
	}

	plan, err = planMigrations(migrations, map[int64]bool{}, migrationDown, 1)
	if err != nil {
		t.Fatalf("plan down on empty state: %v", err)
	}
	if len(plan) != 0 {
		t.Fatalf("expected empty down plan, got %v", versions(plan))
	}

	if _, err := planMigrations(migrations, map[int64]bool{9: true}, migrationDown, 1); err == nil {
		t.Fatal("expected error for unknown applied version")
	}
	if _, err := planMigrations(migrations, nil, migrationDirection("sideways"), 0); err == nil {
		t.Fatal("expected error for unsupported direction")
	}
}
