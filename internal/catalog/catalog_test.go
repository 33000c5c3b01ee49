package catalog

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/matilda-discovery/matilda/internal/queryengine"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE student (id INTEGER PRIMARY KEY, name TEXT, year INTEGER, dept_id INTEGER);
		CREATE TABLE enrollment (enrollment_id INTEGER PRIMARY KEY, student_id INTEGER, course_id INTEGER);
		INSERT INTO student VALUES (1,'Alice',1,10),(2,'Bob',2,10);
		INSERT INTO enrollment VALUES (1,1,100),(2,2,100),(3,999,100);
	`)
	require.NoError(t, err)
	return db
}

func TestLoadIntrospectsTablesAndColumns(t *testing.T) {
	db := openTestDB(t)
	eng := queryengine.New(db, nil, 0)

	cat, err := Load(context.Background(), db, SQLiteDialect{}, eng, LoadOptions{SampleSize: 10}, nil)
	require.NoError(t, err)

	require.Equal(t, []string{"enrollment", "student"}, cat.Relations())

	rel, ok := cat.Relation("student")
	require.True(t, ok)
	require.Equal(t, 4, rel.Arity())
	require.Equal(t, "id", rel.Columns[0].Name)
	require.Equal(t, DomainInteger, rel.Columns[0].Domain)
	require.Equal(t, DomainText, rel.Columns[1].Domain)

	st, ok := cat.Stats("student", "id")
	require.True(t, ok)
	require.EqualValues(t, 2, st.RowCount)
	require.EqualValues(t, 2, st.DistinctCount)
}

func TestNormalizeDomain(t *testing.T) {
	cases := map[string]Domain{
		"INTEGER":         DomainInteger,
		"VARCHAR(255)":    DomainText,
		"TEXT":            DomainText,
		"REAL":            DomainReal,
		"DOUBLE PRECISION": DomainReal,
		"BLOB":            DomainBlob,
		"":                DomainText,
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeDomain(in), "input %q", in)
	}
}
