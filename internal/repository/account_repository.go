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

const accountColumns = "id, user_id, connection_id, external_id, name, type, balance, currency, institution, account_number, is_active, last_synced_at, created_at, updated_at"

type AccountRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAccountRepository(db *pgxpool.Pool, logger *zap.Logger) *AccountRepository {
	return &AccountRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := squirrel.Insert("accounts").
		Columns("id", "user_id", "connection_id", "external_id", "name", "type", "balance", "currency", "institution", "account_number", "is_active", "last_synced_at", "created_at", "updated_at").
		Values(account.ID, account.UserID, account.ConnectionID, account.ExternalID, account.Name, account.Type, account.Balance, account.Currency, account.Institution, account.AccountNumber, account.IsActive, account.LastSyncedAt, account.CreatedAt, account.UpdatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	query := squirrel.Select(accountColumns).
		From("accounts").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanOne(r.db.QueryRow(ctx, sql, args...))
}

// GetByExternalID looks an account up by the aggregator's identifier, the
// natural key for upsert-on-sync.
func (r *AccountRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	query := squirrel.Select(accountColumns).
		From("accounts").
		Where(squirrel.Eq{"external_id": externalID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanOne(r.db.QueryRow(ctx, sql, args...))
}

func (r *AccountRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*models.Account, error) {
	query := squirrel.Select(accountColumns).
		From("accounts").
		Where(squirrel.Eq{"user_id": userID, "is_active": true}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

func (r *AccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Account, error) {
	query := squirrel.Select(accountColumns).
		From("accounts").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	return r.list(ctx, query)
}

func (r *AccountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance float64, syncedAt time.Time) error {
	query := squirrel.Update("accounts").
		Set("balance", balance).
		Set("last_synced_at", syncedAt).
		Set("updated_at", syncedAt).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	query := squirrel.Update("accounts").
		Set("name", account.Name).
		Set("type", account.Type).
		Set("balance", account.Balance).
		Set("currency", account.Currency).
		Set("institution", account.Institution).
		Set("is_active", account.IsActive).
		Set("updated_at", account.UpdatedAt).
		Where(squirrel.Eq{"id": account.ID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AccountRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := squirrel.Update("accounts").
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

func (r *AccountRepository) DeactivateAllByUser(ctx context.Context, userID uuid.UUID) error {
	query := squirrel.Update("accounts").
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

func (r *AccountRepository) DeactivateByConnection(ctx context.Context, connectionID uuid.UUID) error {
	query := squirrel.Update("accounts").
		Set("is_active", false).
		Where(squirrel.Eq{"connection_id": connectionID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *AccountRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Account, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.ConnectionID, &account.ExternalID, &account.Name,
			&account.Type, &account.Balance, &account.Currency, &account.Institution, &account.AccountNumber,
			&account.IsActive, &account.LastSyncedAt, &account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, &account)
	}

	return accounts, rows.Err()
}

func (r *AccountRepository) scanOne(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID, &account.UserID, &account.ConnectionID, &account.ExternalID, &account.Name,
		&account.Type, &account.Balance, &account.Currency, &account.Institution, &account.AccountNumber,
		&account.IsActive, &account.LastSyncedAt, &account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}
