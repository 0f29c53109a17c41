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

const transactionColumns = "id, account_id, external_id, amount, description, date, category, category_confidence, is_manually_overridden, metadata, created_at"

type TransactionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTransactionRepository(db *pgxpool.Pool, logger *zap.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	query := squirrel.Insert("transactions").
		Columns("id", "account_id", "external_id", "amount", "description", "date", "category", "category_confidence", "is_manually_overridden", "metadata", "created_at").
		Values(tx.ID, tx.AccountID, tx.ExternalID, tx.Amount, tx.Description, tx.Date, tx.Category, tx.CategoryConfidence, tx.IsManuallyOverridden, tx.Metadata, tx.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	query := squirrel.Select(transactionColumns).
		From("transactions").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanOne(r.db.QueryRow(ctx, sql, args...))
}

// GetByExternalID is the dedupe lookup: at most one stored copy exists per
// aggregator transaction id.
func (r *TransactionRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Transaction, error) {
	query := squirrel.Select(transactionColumns).
		From("transactions").
		Where(squirrel.Eq{"external_id": externalID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanOne(r.db.QueryRow(ctx, sql, args...))
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, from, to time.Time) ([]*models.Transaction, error) {
	query := squirrel.Select(transactionColumns).
		From("transactions").
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("date DESC").
		PlaceholderFormat(squirrel.Dollar)

	if !from.IsZero() {
		query = query.Where(squirrel.GtOrEq{"date": from})
	}
	if !to.IsZero() {
		query = query.Where(squirrel.LtOrEq{"date": to})
	}

	return r.list(ctx, query)
}

// ListByUser joins through accounts: transactions carry no user id of
// their own and are only reachable through their owning account.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, category string, from, to time.Time) ([]*models.Transaction, error) {
	query := squirrel.Select(
		"t.id", "t.account_id", "t.external_id", "t.amount", "t.description", "t.date",
		"t.category", "t.category_confidence", "t.is_manually_overridden", "t.metadata", "t.created_at",
	).
		From("transactions t").
		Join("accounts a ON a.id = t.account_id").
		Where(squirrel.Eq{"a.user_id": userID}).
		OrderBy("t.date DESC").
		PlaceholderFormat(squirrel.Dollar)

	if category != "" {
		query = query.Where(squirrel.Eq{"t.category": category})
	}
	if !from.IsZero() {
		query = query.Where(squirrel.GtOrEq{"t.date": from})
	}
	if !to.IsZero() {
		query = query.Where(squirrel.LtOrEq{"t.date": to})
	}

	return r.list(ctx, query)
}

// UpdateCategory applies a user-driven recategorization. Sync never calls
// this; stored transactions are immutable to sync.
func (r *TransactionRepository) UpdateCategory(ctx context.Context, id uuid.UUID, category string, confidence float64, overridden bool) error {
	query := squirrel.Update("transactions").
		Set("category", category).
		Set("category_confidence", confidence).
		Set("is_manually_overridden", overridden).
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *TransactionRepository) list(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Transaction, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.AccountID, &tx.ExternalID, &tx.Amount, &tx.Description, &tx.Date,
			&tx.Category, &tx.CategoryConfidence, &tx.IsManuallyOverridden, &tx.Metadata, &tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, &tx)
	}

	return transactions, rows.Err()
}

func (r *TransactionRepository) scanOne(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.ID, &tx.AccountID, &tx.ExternalID, &tx.Amount, &tx.Description, &tx.Date,
		&tx.Category, &tx.CategoryConfidence, &tx.IsManuallyOverridden, &tx.Metadata, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}
