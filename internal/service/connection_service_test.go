package service

import (
	"context"
	"testing"
	"time"

	"finsight/internal/models"
	"finsight/internal/truelayer"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConnectionEnv() (*ConnectionService, *fakeConnectionStore, *fakeAccountStore) {
	connections := newFakeConnectionStore()
	accounts := newFakeAccountStore()
	return NewConnectionService(connections, accounts, zap.NewNop()), connections, accounts
}

func seedAccount(t *testing.T, store *fakeAccountStore, userID uuid.UUID, connectionID *uuid.UUID, externalID string) uuid.UUID {
	t.Helper()
	account := &models.Account{
		ID:           uuid.New(),
		UserID:       userID,
		ConnectionID: connectionID,
		ExternalID:   externalID,
		Name:         externalID,
		Type:         models.AccountTypeChecking,
		IsActive:     true,
	}
	require.NoError(t, store.Create(context.Background(), account))
	return account.ID
}

func TestConnectionCreate(t *testing.T) {
	svc, store, _ := newConnectionEnv()
	userID := uuid.New()

	token := &truelayer.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	}

	conn, err := svc.Create(context.Background(), userID, token, "accounts balance")
	require.NoError(t, err)

	assert.True(t, conn.IsActive)
	assert.Equal(t, "accounts balance", conn.Scope)
	assert.WithinDuration(t, time.Now().Add(time.Hour), conn.ExpiresAt, 5*time.Second)

	stored, err := store.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "access", stored.AccessToken)
}

func TestActiveReturnsNoActiveConnection(t *testing.T) {
	svc, _, _ := newConnectionEnv()

	_, err := svc.Active(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoActiveConnection)
}

func TestSaveRefreshedTokensUpdatesInMemoryConnection(t *testing.T) {
	svc, store, _ := newConnectionEnv()
	userID := uuid.New()

	conn, err := svc.Create(context.Background(), userID, &truelayer.Token{
		AccessToken:  "stale",
		RefreshToken: "stale-refresh",
		TokenType:    "Bearer",
		ExpiresIn:    1,
	}, "")
	require.NoError(t, err)

	err = svc.SaveRefreshedTokens(context.Background(), conn, &truelayer.Token{
		AccessToken:  "fresh",
		RefreshToken: "fresh-refresh",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
	})
	require.NoError(t, err)

	assert.Equal(t, "fresh", conn.AccessToken)
	assert.Equal(t, "fresh-refresh", conn.RefreshToken)

	stored, err := store.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored.AccessToken)
}

func TestDeactivateAllCascadesToAccounts(t *testing.T) {
	svc, connStore, accountStore := newConnectionEnv()
	userID := uuid.New()
	otherUser := uuid.New()

	conn, err := svc.Create(context.Background(), userID, &truelayer.Token{ExpiresIn: 3600}, "")
	require.NoError(t, err)

	mine := seedAccount(t, accountStore, userID, &conn.ID, "acc-mine")
	manual := seedAccount(t, accountStore, userID, nil, "acc-manual")
	theirs := seedAccount(t, accountStore, otherUser, nil, "acc-theirs")

	require.NoError(t, svc.DeactivateAll(context.Background(), userID))

	stored, err := connStore.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	for _, id := range []uuid.UUID{mine, manual} {
		account, err := accountStore.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.False(t, account.IsActive)
	}

	untouched, err := accountStore.GetByID(context.Background(), theirs)
	require.NoError(t, err)
	assert.True(t, untouched.IsActive)
}

func TestDeactivateOneCascadesOnlyLinkedAccounts(t *testing.T) {
	svc, connStore, accountStore := newConnectionEnv()
	userID := uuid.New()

	first, err := svc.Create(context.Background(), userID, &truelayer.Token{ExpiresIn: 3600}, "")
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), userID, &truelayer.Token{ExpiresIn: 3600}, "")
	require.NoError(t, err)

	linked := seedAccount(t, accountStore, userID, &first.ID, "acc-first")
	unrelated := seedAccount(t, accountStore, userID, &second.ID, "acc-second")

	require.NoError(t, svc.Deactivate(context.Background(), userID, first.ID))

	stored, err := connStore.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	account, err := accountStore.GetByID(context.Background(), linked)
	require.NoError(t, err)
	assert.False(t, account.IsActive)

	other, err := accountStore.GetByID(context.Background(), unrelated)
	require.NoError(t, err)
	assert.True(t, other.IsActive)

	remaining, err := svc.ListActive(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, second.ID, remaining[0].ID)
}

func TestDeactivateUnknownConnection(t *testing.T) {
	svc, _, _ := newConnectionEnv()

	err := svc.Deactivate(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestDeactivateRejectsForeignConnection(t *testing.T) {
	svc, connStore, _ := newConnectionEnv()
	owner := uuid.New()

	conn, err := svc.Create(context.Background(), owner, &truelayer.Token{ExpiresIn: 3600}, "")
	require.NoError(t, err)

	err = svc.Deactivate(context.Background(), uuid.New(), conn.ID)
	assert.ErrorIs(t, err, ErrConnectionNotFound)

	stored, err := connStore.GetByID(context.Background(), conn.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
}
