package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/repositories/dbmodels"
)

// LedgerRepositoryPostgresql persists budget counters. The version
// column backs the ledger's compare-and-swap protocol: an update only
// lands when the stored version still matches the one read.
type LedgerRepositoryPostgresql struct {
	pool *pgxpool.Pool
}

func NewLedgerRepositoryPostgresql(pool *pgxpool.Pool) *LedgerRepositoryPostgresql {
	return &LedgerRepositoryPostgresql{pool: pool}
}

func ledgerKeyPredicate(key models.LedgerKey) squirrel.Eq {
	return squirrel.Eq{
		"campaign_id":  key.CampaignId,
		"user_id":      key.UserId,
		"dimension":    key.Dimension.String(),
		"period":       key.Period.String(),
		"period_start": key.PeriodStart,
	}
}

func (repo *LedgerRepositoryPostgresql) GetEntry(ctx context.Context, key models.LedgerKey) (models.LedgerEntry, error) {
	query, args, err := NewQueryBuilder().
		Select(dbmodels.SelectLedgerEntryColumn...).
		From(dbmodels.TABLE_LEDGER_ENTRIES).
		Where(ledgerKeyPredicate(key)).
		ToSql()
	if err != nil {
		return models.LedgerEntry{}, errors.Wrap(err, "can't build ledger entry query")
	}

	rows, err := repo.pool.Query(ctx, query, args...)
	if err != nil {
		return models.LedgerEntry{}, err
	}
	db, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[dbmodels.DbLedgerEntry])
	if errors.Is(err, pgx.ErrNoRows) {
		// Entries are created lazily on first use.
		return models.LedgerEntry{Key: key}, nil
	}
	if err != nil {
		return models.LedgerEntry{}, err
	}
	return dbmodels.AdaptLedgerEntry(db)
}

func (repo *LedgerRepositoryPostgresql) CompareAndSwap(ctx context.Context, entry models.LedgerEntry, newUsed int64) (bool, error) {
	if entry.Version == 0 {
		query, args, err := NewQueryBuilder().
			Insert(dbmodels.TABLE_LEDGER_ENTRIES).
			Columns(dbmodels.SelectLedgerEntryColumn...).
			Values(
				entry.Key.CampaignId,
				entry.Key.UserId,
				entry.Key.Dimension.String(),
				entry.Key.Period.String(),
				entry.Key.PeriodStart,
				newUsed,
				1,
			).
			Suffix("ON CONFLICT (campaign_id, user_id, dimension, period, period_start) DO NOTHING").
			ToSql()
		if err != nil {
			return false, errors.Wrap(err, "can't build ledger entry insert")
		}
		tag, err := repo.pool.Exec(ctx, query, args...)
		if err != nil {
			return false, err
		}
		return tag.RowsAffected() == 1, nil
	}

	query, args, err := NewQueryBuilder().
		Update(dbmodels.TABLE_LEDGER_ENTRIES).
		Set("used", newUsed).
		Set("version", entry.Version+1).
		Where(ledgerKeyPredicate(entry.Key)).
		Where(squirrel.Eq{"version": entry.Version}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "can't build ledger entry update")
	}
	tag, err := repo.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
