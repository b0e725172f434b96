package postgresdb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/storefront/internal/models"
	"github.com/patric-chuzhbe/storefront/internal/user"
)

var (
	databaseDSN   = "" // host=localhost user=storefront password=storefront dbname=storefront sslmode=disable
	migrationsDir = "../../../cmd/storefront/migrations"
)

func newTestDB(t *testing.T) *PostgresDB {
	t.Helper()

	if databaseDSN == "" {
		t.Skip("databaseDSN is not set")
	}

	db, err := New(context.Background(), databaseDSN, 10*time.Second, migrationsDir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func createTestUser(t *testing.T, db *PostgresDB) *user.User {
	t.Helper()

	usr := &user.User{
		ID:       uuid.New().String(),
		Username: uuid.New().String(),
	}
	_, err := db.CreateUser(context.Background(), usr, nil)
	require.NoError(t, err)

	return usr
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	db := newTestDB(t)

	usr := createTestUser(t, db)

	_, err := db.CreateUser(context.Background(), &user.User{
		ID:       uuid.New().String(),
		Username: usr.Username,
	}, nil)
	assert.ErrorIs(t, err, models.ErrUserAlreadyExists)
}

func TestConcurrentPartialProfileUpdatesKeepBothFields(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	usr := createTestUser(t, db)

	first, err := db.BeginTransaction()
	require.NoError(t, err)

	locked, found, err := db.FindUserByID(ctx, usr.ID, first)
	require.NoError(t, err)
	require.True(t, found)

	done := make(chan error, 1)
	go func() {
		second, err := db.BeginTransaction()
		if err != nil {
			done <- err

			return
		}

		// Blocks on the row lock until the first writer commits, so the
		// snapshot read here already carries the first update.
		snapshot, _, err := db.FindUserByID(ctx, usr.ID, second)
		if err != nil {
			done <- err

			return
		}

		snapshot.Surname = "Surname"
		if err := db.UpdateUser(ctx, snapshot, second); err != nil {
			done <- err

			return
		}

		done <- db.CommitTransaction(second)
	}()

	time.Sleep(100 * time.Millisecond)

	locked.Name = "Name"
	require.NoError(t, db.UpdateUser(ctx, locked, first))
	require.NoError(t, db.CommitTransaction(first))

	require.NoError(t, <-done)

	final, found, err := db.FindUserByID(ctx, usr.ID, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Name", final.Name)
	assert.Equal(t, "Surname", final.Surname)
}
