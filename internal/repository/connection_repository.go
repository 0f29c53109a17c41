package repository

import (
	"context"
	"time"

	"finsight/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const connectionColumns = "id, user_id, access_token, refresh_token, token_type, expires_at, scope, is_active, last_synced_at, created_at"

type ConnectionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewConnectionRepository(db *pgxpool.Pool, logger *zap.Logger) *ConnectionRepository {
	return &ConnectionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ConnectionRepository) Create(ctx context.Context, conn *models.BankConnection) error {
	query := squirrel.Insert("bank_connections").
		Columns("id", "user_id", "access_token", "refresh_token", "token_type", "expires_at", "scope", "is_active", "last_synced_at", "created_at").
		Values(conn.ID, conn.UserID, conn.AccessToken, conn.RefreshToken, conn.TokenType, conn.ExpiresAt, conn.Scope, conn.IsActive, conn.LastSyncedAt, conn.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BankConnection, error) {
	query := squirrel.Select(connectionColumns).
		From("bank_connections").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanOne(r.db.QueryRow(ctx, sql, args...))
}

// GetActiveByUser returns the most recently created active connection.
func (r *ConnectionRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.BankConnection, error) {
	query := squirrel.Select(connectionColumns).
		From("bank_connections").
		Where(squirrel.Eq{"user_id": userID, "is_active": true}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanOne(r.db.QueryRow(ctx, sql, args...))
}

func (r *ConnectionRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.BankConnection, error) {
	query := squirrel.Select(connectionColumns).
		From("bank_connections").
		Where(squirrel.Eq{"user_id": userID, "is_active": true}).
		OrderBy("created_at DESC").
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

// ListAllActive returns every active connection across all users, for the
// background sync pass.
func (r *ConnectionRepository) ListAllActive(ctx context.Context) ([]*models.BankConnection, error) {
	query := squirrel.Select(connectionColumns).
		From("bank_connections").
		Where(squirrel.Eq{"is_active": true}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

func (r *ConnectionRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken, tokenType string, expiresAt time.Time) error {
	query := squirrel.Update("bank_connections").
		Set("access_token", accessToken).
		Set("refresh_token", refreshToken).
		Set("token_type", tokenType).
		Set("expires_at", expiresAt).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ConnectionRepository) UpdateLastSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	query := squirrel.Update("bank_connections").
		Set("last_synced_at", syncedAt).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ConnectionRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Update("bank_connections").
		Set("is_active", false).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ConnectionRepository) DeactivateAllByUser(ctx context.Context, userID uuid.UUID) error {
	query := squirrel.Update("bank_connections").
		Set("is_active", false).
		Where(squirrel.Eq{"user_id": userID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *ConnectionRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.BankConnection, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var connections []*models.BankConnection
	for rows.Next() {
		var conn models.BankConnection
		if err := rows.Scan(
			&conn.ID, &conn.UserID, &conn.AccessToken, &conn.RefreshToken, &conn.TokenType,
			&conn.ExpiresAt, &conn.Scope, &conn.IsActive, &conn.LastSyncedAt, &conn.CreatedAt,
		); err != nil {
			return nil, err
		}
		connections = append(connections, &conn)
	}

	return connections, rows.Err()
}

func (r *ConnectionRepository) scanOne(row pgx.Row) (*models.BankConnection, error) {
	var conn models.BankConnection
	err := row.Scan(
		&conn.ID, &conn.UserID, &conn.AccessToken, &conn.RefreshToken, &conn.TokenType,
		&conn.ExpiresAt, &conn.Scope, &conn.IsActive, &conn.LastSyncedAt, &conn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conn, nil
}
