package repository

import (
	"context"
	"time"

	"finsight/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const snapshotColumns = "id, user_id, total_assets, total_liabilities, net_worth, snapshot_date, created_at"

// NetWorthRepository stores append-only snapshots. There is no update or
// delete on purpose.
type NetWorthRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNetWorthRepository(db *pgxpool.Pool, logger *zap.Logger) *NetWorthRepository {
	return &NetWorthRepository{
		db:     db,
		logger: logger,
	}
}

func (r *NetWorthRepository) Create(ctx context.Context, snapshot *models.NetWorthSnapshot) error {
	query := squirrel.Insert("net_worth_history").
		Columns("id", "user_id", "total_assets", "total_liabilities", "net_worth", "snapshot_date", "created_at").
		Values(snapshot.ID, snapshot.UserID, snapshot.TotalAssets, snapshot.TotalLiabilities, snapshot.NetWorth, snapshot.SnapshotDate, snapshot.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *NetWorthRepository) Latest(ctx context.Context, userID uuid.UUID) (*models.NetWorthSnapshot, error) {
	query := squirrel.Select(snapshotColumns).
		From("net_worth_history").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("snapshot_date DESC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var snapshot models.NetWorthSnapshot
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&snapshot.ID, &snapshot.UserID, &snapshot.TotalAssets, &snapshot.TotalLiabilities,
		&snapshot.NetWorth, &snapshot.SnapshotDate, &snapshot.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &snapshot, nil
}

func (r *NetWorthRepository) ListByUser(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*models.NetWorthSnapshot, error) {
	query := squirrel.Select(snapshotColumns).
		From("net_worth_history").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("snapshot_date ASC").
		PlaceholderFormat(squirrel.Dollar)

	if !from.IsZero() {
		query = query.Where(squirrel.GtOrEq{"snapshot_date": from})
	}
	if !to.IsZero() {
		query = query.Where(squirrel.LtOrEq{"snapshot_date": to})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*models.NetWorthSnapshot
	for rows.Next() {
		var snapshot models.NetWorthSnapshot
		if err := rows.Scan(
			&snapshot.ID, &snapshot.UserID, &snapshot.TotalAssets, &snapshot.TotalLiabilities,
			&snapshot.NetWorth, &snapshot.SnapshotDate, &snapshot.CreatedAt,
		); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &snapshot)
	}

	return snapshots, rows.Err()
}
