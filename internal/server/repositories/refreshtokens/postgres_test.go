package refreshtokens

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authcore/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	userID = "0f8fad5b-d9cb-469f-a165-70867728950e"

	insertQuery    = `(?s)^\s*INSERT\s+INTO\s+refresh_tokens\s*\(token_id,\s*user_id,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+created_at\s*$`
	selectQuery    = `(?s)^\s*SELECT\s+token_id,\s*user_id,\s*expires_at,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+token_id\s*=\s*\$1\s+AND\s+user_id\s*=\s*\$2\s*$`
	deleteOneQuery = `(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token_id\s*=\s*\$1\s*$`
	deleteAllQuery = `(?s)^\s*DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+user_id\s*=\s*\$1\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Now().UTC()

	mock.ExpectQuery(insertQuery).
		WithArgs(sqlmock.AnyArg(), userID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	before := time.Now()
	tok, err := repo.Create(context.Background(), userID, 30*24*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, userID, tok.UserID)
	assert.Equal(t, created, tok.CreatedAt)
	assert.Len(t, tok.TokenID, 2*TokenIDBytes)
	_, err = hex.DecodeString(tok.TokenID)
	assert.NoError(t, err)
	assert.WithinDuration(t, before.Add(30*24*time.Hour), tok.ExpiresAt, 5*time.Second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_FreshIDEachCall(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(insertQuery).
			WithArgs(sqlmock.AnyArg(), userID, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	}

	a, err := repo.Create(context.Background(), userID, time.Hour)
	require.NoError(t, err)
	b, err := repo.Create(context.Background(), userID, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a.TokenID, b.TokenID)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WithArgs(sqlmock.AnyArg(), userID, sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), userID, time.Hour)
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestFindByTokenAndUser_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	expires := time.Now().Add(10 * time.Minute)
	created := time.Now()

	mock.ExpectQuery(selectQuery).
		WithArgs("tid", userID).
		WillReturnRows(sqlmock.NewRows([]string{"token_id", "user_id", "expires_at", "created_at"}).
			AddRow("tid", userID, expires, created))

	tok, err := repo.FindByTokenAndUser(context.Background(), "tid", userID)
	require.NoError(t, err)
	assert.Equal(t, "tid", tok.TokenID)
	assert.True(t, tok.ExpiresAt.Equal(expires))
}

func TestFindByTokenAndUser_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQuery).WithArgs("tid", userID).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByTokenAndUser(context.Background(), "tid", userID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestFindByTokenAndUser_ForeignSubject(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	_, err := repo.FindByTokenAndUser(context.Background(), "tid", "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByTokenAndUser_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(selectQuery).WithArgs("tid", userID).WillReturnError(errors.New("db err"))

	_, err := repo.FindByTokenAndUser(context.Background(), "tid", userID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}

func TestDeleteByTokenID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(deleteOneQuery).WithArgs("tid").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteOneQuery).WithArgs("tid").WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.DeleteByTokenID(context.Background(), "tid")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteByTokenID(context.Background(), "tid")
	require.NoError(t, err, "deleting a missing record is not an error")
	assert.False(t, deleted)
}

func TestDeleteByTokenID_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(deleteOneQuery).WithArgs("tid").WillReturnError(errors.New("db err"))

	_, err := repo.DeleteByTokenID(context.Background(), "tid")
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}

func TestDeleteAllForUser(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(deleteAllQuery).WithArgs(userID).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteAllForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestDeleteAllForUser_NoSessions(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(deleteAllQuery).WithArgs(userID).WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := repo.DeleteAllForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.DeleteAllForUser(context.Background(), "garbage")
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
