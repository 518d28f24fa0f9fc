package repository

import (
	"context"
	"errors"
	"fmt"

	"prizedraw/database"
	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// ErrInsufficientBalance is returned when an account or escrow cannot cover a transfer
var ErrInsufficientBalance = errors.New("insufficient balance")

// TokenLedger keeps token balances and lottery escrows in postgres. Every
// movement is journalled in token_transfers within the same transaction.
type TokenLedger struct {
	db       *database.DB
	observer QueryObserver
}

// NewTokenLedger creates a postgres-backed token ledger
func NewTokenLedger(db *database.DB, observer QueryObserver) *TokenLedger {
	if observer == nil {
		observer = noopObserver{}
	}
	return &TokenLedger{db: db, observer: observer}
}

// Credit mints amount of token into account
func (l *TokenLedger) Credit(ctx context.Context, token string, account entities.AccountID, amount int64) error {
	defer l.observer.MeasureDatabaseQuery("token_ledger", "Credit")()

	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	return l.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO token_accounts (token, account, balance)
			VALUES ($1, $2, $3)
			ON CONFLICT (token, account) DO UPDATE SET
				balance = token_accounts.balance + EXCLUDED.balance,
				updated_at = NOW()
		`, token, string(account), amount)
		if err != nil {
			return fmt.Errorf("failed to credit account: %w", err)
		}
		return journal(ctx, tx, nil, token, account, "credit", amount)
	})
}

// Balance returns the balance of account in token
func (l *TokenLedger) Balance(ctx context.Context, token string, account entities.AccountID) (int64, error) {
	defer l.observer.MeasureDatabaseQuery("token_ledger", "Balance")()

	var balance int64
	err := l.db.QueryRow(ctx,
		`SELECT balance FROM token_accounts WHERE token = $1 AND account = $2`,
		token, string(account),
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

// Escrow returns the funds held for a lottery
func (l *TokenLedger) Escrow(ctx context.Context, lotteryID entities.LotteryID) (int64, error) {
	defer l.observer.MeasureDatabaseQuery("token_ledger", "Escrow")()

	var balance int64
	err := l.db.QueryRow(ctx,
		`SELECT balance FROM escrow_accounts WHERE lottery_id = $1`,
		string(lotteryID),
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get escrow balance: %w", err)
	}
	return balance, nil
}

// RailFor binds a payment rail to one lottery's escrow
func (l *TokenLedger) RailFor(lotteryID entities.LotteryID, token string) interfaces.PaymentRail {
	return &postgresRail{ledger: l, lotteryID: lotteryID, token: token}
}

type postgresRail struct {
	ledger    *TokenLedger
	lotteryID entities.LotteryID
	token     string
}

func (r *postgresRail) TransferIn(ctx context.Context, from entities.AccountID, amount int64) error {
	defer r.ledger.observer.MeasureDatabaseQuery("token_ledger", "TransferIn")()

	err := r.ledger.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var balance int64
		err := tx.QueryRow(ctx,
			`SELECT balance FROM token_accounts WHERE token = $1 AND account = $2 FOR UPDATE`,
			r.token, string(from),
		).Scan(&balance)
		if errors.Is(err, pgx.ErrNoRows) {
			balance = 0
		} else if err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}
		if balance < amount {
			return fmt.Errorf("%w: %s holds %d %s, needs %d", ErrInsufficientBalance, from, balance, r.token, amount)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE token_accounts SET balance = balance - $3, updated_at = NOW()
			WHERE token = $1 AND account = $2
		`, r.token, string(from), amount); err != nil {
			return fmt.Errorf("failed to debit account: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO escrow_accounts (lottery_id, token, balance)
			VALUES ($1, $2, $3)
			ON CONFLICT (lottery_id) DO UPDATE SET
				balance = escrow_accounts.balance + EXCLUDED.balance,
				updated_at = NOW()
		`, string(r.lotteryID), r.token, amount); err != nil {
			return fmt.Errorf("failed to credit escrow: %w", err)
		}

		id := r.lotteryID
		return journal(ctx, tx, &id, r.token, from, "escrow_in", amount)
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"lotteryID": r.lotteryID,
		"from":      from,
		"amount":    amount,
		"token":     r.token,
	}).Debug("Transferred funds into escrow")
	return nil
}

func (r *postgresRail) TransferOut(ctx context.Context, to entities.AccountID, amount int64) error {
	defer r.ledger.observer.MeasureDatabaseQuery("token_ledger", "TransferOut")()

	err := r.ledger.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var escrow int64
		err := tx.QueryRow(ctx,
			`SELECT balance FROM escrow_accounts WHERE lottery_id = $1 FOR UPDATE`,
			string(r.lotteryID),
		).Scan(&escrow)
		if errors.Is(err, pgx.ErrNoRows) {
			escrow = 0
		} else if err != nil {
			return fmt.Errorf("failed to lock escrow: %w", err)
		}
		if escrow < amount {
			return fmt.Errorf("%w: escrow of %s holds %d, needs %d", ErrInsufficientBalance, r.lotteryID, escrow, amount)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE escrow_accounts SET balance = balance - $2, updated_at = NOW()
			WHERE lottery_id = $1
		`, string(r.lotteryID), amount); err != nil {
			return fmt.Errorf("failed to debit escrow: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO token_accounts (token, account, balance)
			VALUES ($1, $2, $3)
			ON CONFLICT (token, account) DO UPDATE SET
				balance = token_accounts.balance + EXCLUDED.balance,
				updated_at = NOW()
		`, r.token, string(to), amount); err != nil {
			return fmt.Errorf("failed to credit account: %w", err)
		}

		id := r.lotteryID
		return journal(ctx, tx, &id, r.token, to, "escrow_out", amount)
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"lotteryID": r.lotteryID,
		"to":        to,
		"amount":    amount,
		"token":     r.token,
	}).Debug("Transferred funds out of escrow")
	return nil
}

func journal(ctx context.Context, q Queryable, lotteryID *entities.LotteryID, token string, account entities.AccountID, direction string, amount int64) error {
	var id *string
	if lotteryID != nil {
		s := string(*lotteryID)
		id = &s
	}
	_, err := q.Exec(ctx, `
		INSERT INTO token_transfers (lottery_id, token, account, direction, amount)
		VALUES ($1, $2, $3, $4, $5)
	`, id, token, string(account), direction, amount)
	if err != nil {
		return fmt.Errorf("failed to journal transfer: %w", err)
	}
	return nil
}
