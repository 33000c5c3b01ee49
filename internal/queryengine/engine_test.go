package queryengine

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE widgets (id INTEGER PRIMARY KEY, color TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO widgets (id, color) VALUES (1,'red'),(2,'blue'),(3,'red')`)
	require.NoError(t, err)
	return db
}

func TestEngineCount(t *testing.T) {
	db := openTestDB(t)
	eng := New(db, nil, 0)

	n, err := eng.Count(context.Background(), "SELECT COUNT(*) FROM widgets", nil)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestEngineCountDistinct(t *testing.T) {
	db := openTestDB(t)
	eng := New(db, nil, 0)

	n, err := eng.CountDistinct(context.Background(), []string{"color"},
		"SELECT COUNT(DISTINCT color) FROM widgets", nil)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
}

func TestEngineSampleValues(t *testing.T) {
	db := openTestDB(t)
	eng := New(db, nil, 0)

	ch, err := eng.SampleValues(context.Background(), "widgets", "color", 10)
	require.NoError(t, err)

	var hashes []uint64
	for h := range ch {
		hashes = append(hashes, h)
	}
	require.Len(t, hashes, 3)
}

type alwaysCancelled struct{}

func (alwaysCancelled) Cancelled() bool { return true }

func TestEngineRespectsCancel(t *testing.T) {
	db := openTestDB(t)
	eng := New(db, alwaysCancelled{}, 0)

	_, err := eng.Count(context.Background(), "SELECT COUNT(*) FROM widgets", nil)
	require.Error(t, err)
	var qerr *Error
	require.ErrorAs(t, err, &qerr)
	require.Equal(t, KindTimeout, qerr.Kind)
}
