package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
	"inzira-booking-client/internal/infrastructure/persistence"
)

var sampleRecord = entity.RecoveryRecord{
	ID:                   55,
	BookingReference:     "BK-55",
	PhoneNumber:          "0788123456",
	Email:                "aline@example.com",
	TransactionReference: "TXN-1",
}

// exerciseRecoveryRepository runs the shared save/overwrite/load/clear contract
func exerciseRecoveryRepository(t *testing.T, repo repository.RecoveryRepository) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, repo.Clear(ctx))

	record, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, record)

	first := sampleRecord
	require.NoError(t, repo.Save(ctx, &first))

	second := sampleRecord
	second.ID = 56
	second.TransactionReference = "TXN-2"
	require.NoError(t, repo.Save(ctx, &second))

	record, err = repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, second, *record)

	require.NoError(t, repo.Clear(ctx))
	record, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, record)

	// clearing twice is fine
	require.NoError(t, repo.Clear(ctx))
}

func TestFileRecoveryRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lastBooking.json")
	exerciseRecoveryRepository(t, NewFileRecoveryRepository(path))
}

func TestFileRecoveryRepository_JSONShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lastBooking.json")
	repo := NewFileRecoveryRepository(path)

	record := sampleRecord
	require.NoError(t, repo.Save(context.Background(), &record))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 55,
		"bookingReference": "BK-55",
		"phoneNumber": "0788123456",
		"email": "aline@example.com",
		"transactionReference": "TXN-1"
	}`, string(data))
}

func TestFileRecoveryRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lastBooking.json")
	require.NoError(t, os.WriteFile(path, []byte("{oops"), 0o600))

	_, err := NewFileRecoveryRepository(path).Load(context.Background())
	assert.Error(t, err)
}

func TestRedisRecoveryRepository(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := persistence.NewRedisClient(context.Background(), addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	exerciseRecoveryRepository(t, NewRedisRecoveryRepository(client, "test:"))
}

func TestMongoRecoveryRepository(t *testing.T) {
	dsn := os.Getenv("TEST_MONGODB_DSN")
	if dsn == "" {
		t.Skip("TEST_MONGODB_DSN not set")
	}
	client, db, err := persistence.NewMongoDatabase(context.Background(), dsn, "inzira_test", "", "")
	require.NoError(t, err)
	defer client.Disconnect(context.Background())

	exerciseRecoveryRepository(t, NewMongoRecoveryRepository(db))
}

func TestGormRecoveryRepository(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
	db, err := persistence.NewPostgres(dsn)
	require.NoError(t, err)
	defer persistence.ClosePostgres(db)

	repo, err := NewGormRecoveryRepository(db)
	require.NoError(t, err)
	exerciseRecoveryRepository(t, repo)
}
