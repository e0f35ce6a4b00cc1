package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var postColumns = []string{"id", "content", "likes", "created"}

func openGorm(t *testing.T, db *sql.DB) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return gdb
}

// newMockSession opens a session against sqlmock. The raw *sql.DB is
// returned so tests can look at pool stats.
func newMockSession(t *testing.T, schema string) (Session, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	session, err := NewSessionFactory(openGorm(t, db), schema).Open(context.Background())
	require.NoError(t, err)
	return session, mock, db
}

func TestSelectByIDScansRows(t *testing.T) {
	session, mock, _ := newMockSession(t, "social")
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id,content,likes,created FROM "social"."posts" WHERE removed = $1 AND id = $2 ORDER BY id DESC`)).
		WithArgs(false, int64(7)).
		WillReturnRows(sqlmock.NewRows(postColumns).AddRow(int64(7), []byte("hello"), int64(2), created))

	result, err := session.Posts().Select(PostByID(7, false))
	require.NoError(t, err)

	require.Len(t, result.Columns, 4)
	for i, name := range postColumns {
		assert.Equal(t, name, result.Columns[i].Label())
	}
	require.Len(t, result.Rows, 1)
	assert.Equal(t, []interface{}{int64(7), "hello", int64(2), created}, result.Rows[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectVisibleQualifiesTable(t *testing.T) {
	tests := []struct {
		schema string
		table  string
	}{
		{schema: "social", table: `"social"."posts"`},
		{schema: "", table: `"posts"`},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			session, mock, _ := newMockSession(t, tt.schema)

			mock.ExpectQuery(regexp.QuoteMeta(`SELECT id,content,likes,created FROM ` + tt.table + ` WHERE removed = $1 ORDER BY id DESC`)).
				WithArgs(false).
				WillReturnRows(sqlmock.NewRows(postColumns))

			result, err := session.Posts().Select(Visible())
			require.NoError(t, err)
			assert.Empty(t, result.Rows)
			assert.Len(t, result.Columns, 4)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestSelectRemoved(t *testing.T) {
	session, mock, _ := newMockSession(t, "social")

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE removed = $1 AND id = $2`)).
		WithArgs(true, int64(3)).
		WillReturnRows(sqlmock.NewRows(postColumns))

	_, err := session.Posts().Select(PostByID(3, true))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectError(t *testing.T) {
	session, mock, _ := newMockSession(t, "social")
	boom := errors.New("boom")

	mock.ExpectQuery(`SELECT`).WillReturnError(boom)

	_, err := session.Posts().Select(Visible())
	assert.ErrorIs(t, err, boom)
}

func TestInsertReturnsGeneratedID(t *testing.T) {
	session, mock, _ := newMockSession(t, "social")
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "social"."posts" ("content") VALUES ($1) RETURNING "id","created"`)).
		WithArgs("hello").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created"}).AddRow(int64(7), created))
	mock.ExpectCommit()

	id, err := session.Posts().Insert("hello")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAppliesLikesDeltaInSQL(t *testing.T) {
	session, mock, _ := newMockSession(t, "social")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "social"."posts" SET "likes"=COALESCE(likes, 0) + $1 WHERE removed = $2 AND id = $3`)).
		WithArgs(int64(-1), false, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	affected, err := session.Posts().Update(PostByID(7, false), Changes{LikesDelta: -1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReportsRowsAffected(t *testing.T) {
	session, mock, _ := newMockSession(t, "social")
	removed := true

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "social"."posts" SET "removed"=$1 WHERE removed = $2 AND id = $3`)).
		WithArgs(true, false, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	affected, err := session.Posts().Update(PostByID(9, false), Changes{Removed: &removed})
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithoutChangesSkipsSQL(t *testing.T) {
	session, mock, _ := newMockSession(t, "social")

	affected, err := session.Posts().Update(PostByID(1, false), Changes{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateErrorRollsBack(t *testing.T) {
	session, mock, _ := newMockSession(t, "social")
	content := "changed"
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "social"."posts" SET "content"=$1`)).
		WillReturnError(boom)
	mock.ExpectRollback()

	_, err := session.Posts().Update(PostByID(1, false), Changes{Content: &content})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionPinsOneConnection(t *testing.T) {
	session, mock, db := newMockSession(t, "social")

	assert.Equal(t, 1, db.Stats().InUse)

	require.NoError(t, session.Close())
	assert.Equal(t, 0, db.Stats().InUse)

	assert.ErrorIs(t, session.Close(), ErrSessionClosed)

	_, err := session.Posts().Select(Visible())
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// gorm pings once while opening
	mock.ExpectPing()
	sessions := NewSessionFactory(openGorm(t, db), "social")

	boom := errors.New("connection refused")
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(boom)

	assert.NoError(t, sessions.Ping(context.Background()))
	assert.ErrorIs(t, sessions.Ping(context.Background()), boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
