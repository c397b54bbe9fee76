package users

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUserRows reports no rows, optionally with a deferred query error
// the way pgx reports a statement failure on the first Next call.
type fakeUserRows struct {
	rowsErr error
}

func (f *fakeUserRows) Close() {}

func (f *fakeUserRows) Err() error { return f.rowsErr }

func (f *fakeUserRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (f *fakeUserRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (f *fakeUserRows) Values() ([]any, error) { return nil, nil }

func (f *fakeUserRows) RawValues() [][]byte { return nil }

func (f *fakeUserRows) Conn() *pgx.Conn { return nil }

func (f *fakeUserRows) Next() bool { return false }

func (f *fakeUserRows) Scan(dest ...any) error { return errors.New("no row to scan") }

func TestScanUser_QueryErrorIsNotAMissingUser(t *testing.T) {
	queryErr := errors.New("conn closed")

	user, err := scanUser(&fakeUserRows{rowsErr: queryErr})

	require.Error(t, err)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, queryErr)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}

func TestScanUser_NoRowIsAMissingUser(t *testing.T) {
	user, err := scanUser(&fakeUserRows{})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
