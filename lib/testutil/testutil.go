// Package testutil sets up the shared pieces package tests need.
package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"covid19-scrapers/lib/telemetry"

	_ "modernc.org/sqlite"
)

type Params struct {
	Name string
	// if unspecified, no db is opened
	DbSchema string
}

type Result struct {
	DB *sql.DB
}

// Setup initializes telemetry for the test binary and, if given a schema,
// opens an in-memory sqlite db with it applied. the db is closed when the
// test ends.
func Setup(t testing.TB, params Params) Result {
	t.Helper()
	telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))

	if params.DbSchema == "" {
		return Result{}
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(params.DbSchema)
	if err != nil {
		t.Fatal(err)
	}
	return Result{DB: db}
}
