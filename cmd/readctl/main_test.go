package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readinghub/internal/user"
	"readinghub/pkg/database"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestImportAndStats(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "cli.db")

	out, err := runCLI(t, "--driver", "sqlite3", "--dsn", dsn, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	db, err := database.Open(database.DriverSQLite, dsn)
	require.NoError(t, err)
	_, err = user.CreateUser(context.Background(), db, user.Credentials{Email: "cli@example.com", Password: "pw"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	csvPath := filepath.Join(dir, "books.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("title,author,topic,school,total,current\nSapiens,Harari,history,,443,100\n,missing,,,,\n"), 0o600))

	out, err = runCLI(t, "--driver", "sqlite3", "--dsn", dsn, "import", csvPath, "--user", "cli@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "created=1")

	out, err = runCLI(t, "--driver", "sqlite3", "--dsn", dsn, "stats", "--user", "cli@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "1 books, 100/443 pages, 23%")
	assert.Contains(t, out, "Sapiens")
}

func TestUserRequired(t *testing.T) {
	_, err := runCLI(t, "--driver", "sqlite3", "--dsn", filepath.Join(t.TempDir(), "x.db"), "stats")
	assert.EqualError(t, err, "--user is required")
}
