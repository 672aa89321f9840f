package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"telegram-roulette-bot/internal/model"
)

const txColumns = `id, user_id, amount, type, description, created_at`

// TransactionRepository handles transaction data persistence.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository instance.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	var tx model.Transaction
	err := row.Scan(&tx.ID, &tx.UserID, &tx.Amount, &tx.Type, &tx.Description, &tx.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Create records a signed balance change.
func (r *TransactionRepository) Create(ctx context.Context, userID int64, amount decimal.Decimal, txType string, description *string) (*model.Transaction, error) {
	return r.CreateWithTime(ctx, userID, amount, txType, description, time.Now())
}

// CreateWithTime records a balance change with an explicit timestamp.
func (r *TransactionRepository) CreateWithTime(ctx context.Context, userID int64, amount decimal.Decimal, txType string, description *string, createdAt time.Time) (*model.Transaction, error) {
	query := `
		INSERT INTO transactions (user_id, amount, type, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + txColumns

	tx, err := scanTransaction(r.pool.QueryRow(ctx, query, userID, amount, txType, description, createdAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return tx, nil
}

// GetByUserID retrieves a user's transactions, newest first.
func (r *TransactionRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*model.Transaction, error) {
	query := `
		SELECT ` + txColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}

// Daily net profit is the sum over game transaction types only; daily rewards and
// admin adjustments do not count.
const dailyProfitQuery = `
	SELECT t.user_id, u.username, COALESCE(SUM(t.amount), 0) AS net_profit
	FROM transactions t
	JOIN users u ON t.user_id = u.telegram_id
	WHERE t.type = ANY($1)
	  AND t.created_at >= $2
	  AND t.created_at < $3
	GROUP BY t.user_id, u.username
`

func (r *TransactionRepository) queryDailyRanks(ctx context.Context, query string, args ...any) ([]*model.DailyRank, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranks []*model.DailyRank
	for rows.Next() {
		var rank model.DailyRank
		if err := rows.Scan(&rank.UserID, &rank.Username, &rank.NetProfit); err != nil {
			return nil, err
		}
		ranks = append(ranks, &rank)
	}
	return ranks, rows.Err()
}

// GetDailyStats returns every user's net game profit for the given day.
func (r *TransactionRepository) GetDailyStats(ctx context.Context, date time.Time) ([]*model.DailyRank, error) {
	start, end := dayBounds(date)
	ranks, err := r.queryDailyRanks(ctx, dailyProfitQuery+` ORDER BY net_profit DESC`,
		model.GameTransactionTypes(), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	return ranks, nil
}

// GetDailyWinners returns users with positive net profit for the day, biggest first.
func (r *TransactionRepository) GetDailyWinners(ctx context.Context, date time.Time, limit int) ([]*model.DailyRank, error) {
	start, end := dayBounds(date)
	ranks, err := r.queryDailyRanks(ctx, dailyProfitQuery+` HAVING SUM(t.amount) > 0 ORDER BY net_profit DESC LIMIT $4`,
		model.GameTransactionTypes(), start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily winners: %w", err)
	}
	return ranks, nil
}

// GetDailyLosers returns users with negative net profit for the day, biggest loss first.
func (r *TransactionRepository) GetDailyLosers(ctx context.Context, date time.Time, limit int) ([]*model.DailyRank, error) {
	start, end := dayBounds(date)
	ranks, err := r.queryDailyRanks(ctx, dailyProfitQuery+` HAVING SUM(t.amount) < 0 ORDER BY net_profit ASC LIMIT $4`,
		model.GameTransactionTypes(), start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily losers: %w", err)
	}
	return ranks, nil
}

// GetUserDailyProfit returns one user's net game profit for the day.
func (r *TransactionRepository) GetUserDailyProfit(ctx context.Context, userID int64, date time.Time) (decimal.Decimal, error) {
	start, end := dayBounds(date)

	const query = `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1
		  AND type = ANY($2)
		  AND created_at >= $3
		  AND created_at < $4
	`

	var profit decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, userID, model.GameTransactionTypes(), start, end).Scan(&profit); err != nil {
		return decimal.Zero, fmt.Errorf("failed to get user daily profit: %w", err)
	}
	return profit, nil
}
