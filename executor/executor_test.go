package executor

import (
	"context"
	"os"
	"testing"
)

func TestIsQueryMode(t *testing.T) {
	cases := map[string]bool{
		"SELECT 1":                             true,
		"  select id from t":                   true,
		"SHOW VARIABLES":                       true,
		"WITH x AS (SELECT 1) SELECT * FROM x": true,
		"VALUES (1), (2)":                      true,
		"EXPLAIN SELECT 1":                     true,
		"INSERT INTO t VALUES (1)":             false,
		"UPDATE t SET a = 1":                   false,
		"CREATE TABLE t (a INT)":               false,
	}
	for sql, want := range cases {
		if got := isQueryMode(sql); got != want {
			t.Errorf("isQueryMode(%q) = %v, want %v", sql, got, want)
		}
	}
}

func TestNoteCreateTableAndWithReturningPK(t *testing.T) {
	e := &Executor{serialPK: make(map[string]string)}

	e.noteCreateTable(`CREATE TABLE u (id SERIAL PRIMARY KEY, n TEXT)`)

	out, pk := e.withReturningPK(`INSERT INTO u (n) VALUES ('a')`)
	if pk != "id" {
		t.Fatalf("expected pk 'id', got %q", pk)
	}
	want := `INSERT INTO u (n) VALUES ('a') RETURNING "id"`
	if out != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestWithReturningPKUnknownTable(t *testing.T) {
	e := &Executor{serialPK: make(map[string]string)}
	out, pk := e.withReturningPK(`INSERT INTO nevercreated (n) VALUES ('a')`)
	if pk != "" {
		t.Fatalf("expected no pk for unknown table, got %q", pk)
	}
	if out != `INSERT INTO nevercreated (n) VALUES ('a')` {
		t.Fatalf("statement should be unmodified, got %q", out)
	}
}

func TestWithReturningPKAlreadyPresent(t *testing.T) {
	e := &Executor{serialPK: make(map[string]string)}
	e.noteCreateTable(`CREATE TABLE u (id BIGSERIAL PRIMARY KEY, n TEXT)`)
	in := `INSERT INTO u (n) VALUES ('a') RETURNING id`
	out, pk := e.withReturningPK(in)
	if pk != "" || out != in {
		t.Fatalf("statement with an existing RETURNING should be left alone, got %q, pk=%q", out, pk)
	}
}

// TestIntegrationSmoke exercises Connect/Exec against a real
// PostgreSQL instance when PGGATEWAY_TEST_DSN is set.
func TestIntegrationSmoke(t *testing.T) {
	dsn := os.Getenv("PGGATEWAY_TEST_DSN")
	if dsn == "" {
		t.Skip("PGGATEWAY_TEST_DSN not set; skipping integration test")
	}

	ctx := context.Background()
	e, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer e.Close(ctx)

	if _, ge := e.Exec(ctx, `CREATE TABLE IF NOT EXISTS executor_smoke (id SERIAL PRIMARY KEY, n TEXT)`); ge != nil {
		t.Fatalf("create table: %v", ge)
	}
	res, ge := e.Exec(ctx, `INSERT INTO executor_smoke (n) VALUES ('a')`)
	if ge != nil {
		t.Fatalf("insert: %v", ge)
	}
	if res.OK.LastInsertID == 0 {
		t.Fatalf("expected a non-zero last insert id")
	}

	res, ge = e.Exec(ctx, `SELECT id, n FROM executor_smoke`)
	if ge != nil {
		t.Fatalf("select: %v", ge)
	}
	if len(res.Set.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Set.Rows))
	}

	if _, ge := e.Exec(ctx, `DROP TABLE executor_smoke`); ge != nil {
		t.Fatalf("drop table: %v", ge)
	}
}
