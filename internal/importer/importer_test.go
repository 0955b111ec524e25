package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"readinghub/internal/library"
	"readinghub/internal/user"
	"readinghub/pkg/database"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestParseYAMLAndJSON(t *testing.T) {
	yml := write(t, "books.yaml", `
items:
  - title: Sapiens
    author: Yuval Noah Harari
    topic: history
    totalPages: 443
  - title: Meditations
    currentPage: 20
`)
	items, errs, err := Parse(DefaultConfig(yml))
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, items, 2)
	assert.Equal(t, 443, items[0].TotalPages)
	assert.Equal(t, 20, items[1].CurrentPage)

	js := write(t, "books.json", `[{"title":"Dune","author":"Frank Herbert","totalPages":600}]`)
	items, _, err = Parse(DefaultConfig(js))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Frank Herbert", items[0].Author)

	_, _, err = Parse(DefaultConfig(write(t, "books.txt", "x")))
	assert.Error(t, err)
}

func TestParseCSVReportsBadRows(t *testing.T) {
	p := write(t, "books.csv", "title,author,topic,school,total,current\nEmma,Austen,,classics,474,10\n,nobody,,,1,1\nBad,X,,,abc,0\n")
	items, errs, err := Parse(DefaultConfig(p))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "classics", items[0].School)
	assert.Len(t, errs, 2)
}

func TestImportExcel(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]any{
		{"Title", "Author", "Topic", "School", "Total", "Current"},
		{"Sapiens", "Harari", "history", "", 443, 0},
		{"Emma", "Austen", "", "classics", 474, 100},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "books.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "imp.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	u, err := user.CreateUser(ctx, db, user.Credentials{Email: "imp@example.com", Password: "pw"}, time.Now())
	require.NoError(t, err)

	res, err := Import(ctx, db, u.ID, DefaultConfig(path), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Skipped)

	res, err = Import(ctx, db, u.ID, DefaultConfig(path), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Skipped)

	items, err := library.ListForUser(ctx, db, u.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
