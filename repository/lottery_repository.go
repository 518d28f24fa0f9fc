package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"prizedraw/database"
	"prizedraw/domain/entities"

	"github.com/jackc/pgx/v5"
)

// LotteryRepository persists lottery snapshots across the lotteries,
// ticket_blocks, lottery_winners and refund_entries tables
type LotteryRepository struct {
	db       *database.DB
	observer QueryObserver
}

// NewLotteryRepository creates a new lottery repository
func NewLotteryRepository(db *database.DB, observer QueryObserver) *LotteryRepository {
	if observer == nil {
		observer = noopObserver{}
	}
	return &LotteryRepository{db: db, observer: observer}
}

// Save upserts the complete snapshot in one transaction. Ticket blocks are
// append-only, so only blocks newer than the stored ones are written.
func (r *LotteryRepository) Save(ctx context.Context, snapshot *entities.LotterySnapshot) error {
	defer r.observer.MeasureDatabaseQuery("lottery", "Save")()

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := upsertLottery(ctx, tx, snapshot); err != nil {
			return err
		}
		if err := saveBlocks(ctx, tx, snapshot); err != nil {
			return err
		}
		if err := saveWinners(ctx, tx, snapshot); err != nil {
			return err
		}
		return saveRefunds(ctx, tx, snapshot)
	})
	if err != nil {
		return fmt.Errorf("failed to save lottery %s: %w", snapshot.ID, err)
	}
	return nil
}

func upsertLottery(ctx context.Context, q Queryable, s *entities.LotterySnapshot) error {
	query := `
		INSERT INTO lotteries (
			id, creator, payment_token, ticket_price, max_tickets, min_tickets,
			start_time, end_time, draw_time, prize_shares, status, tickets_sold,
			escrow_balance, draw_request_id, draw_requested_at, seed, halted,
			halt_reason, created_at, resolved_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			tickets_sold = EXCLUDED.tickets_sold,
			escrow_balance = EXCLUDED.escrow_balance,
			draw_request_id = EXCLUDED.draw_request_id,
			draw_requested_at = EXCLUDED.draw_requested_at,
			seed = EXCLUDED.seed,
			halted = EXCLUDED.halted,
			halt_reason = EXCLUDED.halt_reason,
			resolved_at = EXCLUDED.resolved_at,
			updated_at = NOW()
	`

	var seed []byte
	if s.Seed != nil {
		seed = s.Seed[:]
	}
	var requestID *string
	if s.DrawRequestID != nil {
		id := string(*s.DrawRequestID)
		requestID = &id
	}

	_, err := q.Exec(ctx, query,
		string(s.ID),
		string(s.Creator),
		s.Config.PaymentToken,
		s.Config.TicketPrice,
		s.Config.MaxTickets,
		s.Config.MinTickets,
		s.Config.StartTime,
		s.Config.EndTime,
		s.Config.DrawTime,
		s.Config.PrizeShares,
		string(s.Status),
		s.TicketsSold,
		s.EscrowBalance,
		requestID,
		s.DrawRequestedAt,
		seed,
		s.Halted,
		s.HaltReason,
		s.CreatedAt,
		s.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert lottery: %w", err)
	}
	return nil
}

func saveBlocks(ctx context.Context, q Queryable, s *entities.LotterySnapshot) error {
	// drop blocks whose purchase was undone after a failed save
	if _, err := q.Exec(ctx,
		`DELETE FROM ticket_blocks WHERE lottery_id = $1 AND first_ticket > $2`,
		string(s.ID), s.TicketsSold,
	); err != nil {
		return fmt.Errorf("failed to trim ticket blocks: %w", err)
	}

	var stored int64
	err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(first_ticket), 0) FROM ticket_blocks WHERE lottery_id = $1`,
		string(s.ID),
	).Scan(&stored)
	if err != nil {
		return fmt.Errorf("failed to read stored ticket blocks: %w", err)
	}

	batch := &pgx.Batch{}
	for _, b := range s.Blocks {
		if b.FirstTicket <= stored {
			continue
		}
		batch.Queue(`
			INSERT INTO ticket_blocks (lottery_id, first_ticket, owner, count, purchased_at)
			VALUES ($1, $2, $3, $4, $5)
		`, string(s.ID), b.FirstTicket, string(b.Owner), b.Count, b.PurchasedAt)
	}
	return sendBatch(ctx, q, batch, "ticket blocks")
}

func saveWinners(ctx context.Context, q Queryable, s *entities.LotterySnapshot) error {
	batch := &pgx.Batch{}
	for _, w := range s.Winners {
		batch.Queue(`
			INSERT INTO lottery_winners (
				lottery_id, tier_index, ticket_number, owner, payout_amount,
				payout_status, attempts, last_error, paid_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (lottery_id, tier_index) DO UPDATE SET
				payout_status = EXCLUDED.payout_status,
				attempts = EXCLUDED.attempts,
				last_error = EXCLUDED.last_error,
				paid_at = EXCLUDED.paid_at
		`, string(s.ID), w.TierIndex, w.TicketNumber, string(w.Owner), w.PayoutAmount,
			string(w.PayoutStatus), w.Attempts, w.LastError, w.PaidAt)
	}
	return sendBatch(ctx, q, batch, "winners")
}

func saveRefunds(ctx context.Context, q Queryable, s *entities.LotterySnapshot) error {
	batch := &pgx.Batch{}
	for _, e := range s.Refunds {
		batch.Queue(`
			INSERT INTO refund_entries (lottery_id, first_ticket, owner, amount, refunded, refunded_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (lottery_id, first_ticket) DO UPDATE SET
				refunded = EXCLUDED.refunded,
				refunded_at = EXCLUDED.refunded_at
		`, string(s.ID), e.FirstTicket, string(e.Owner), e.Amount, e.Refunded, e.RefundedAt)
	}
	return sendBatch(ctx, q, batch, "refund entries")
}

func sendBatch(ctx context.Context, q Queryable, batch *pgx.Batch, what string) error {
	if batch.Len() == 0 {
		return nil
	}
	results := q.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to save %s: %w", what, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to save %s: %w", what, err)
	}
	return nil
}

const lotteryColumns = `
	id, creator, payment_token, ticket_price, max_tickets, min_tickets,
	start_time, end_time, draw_time, prize_shares, status, tickets_sold,
	escrow_balance, draw_request_id, draw_requested_at, seed, halted,
	halt_reason, created_at, resolved_at
`

// GetByID returns a single snapshot, or nil if it does not exist
func (r *LotteryRepository) GetByID(ctx context.Context, id entities.LotteryID) (*entities.LotterySnapshot, error) {
	defer r.observer.MeasureDatabaseQuery("lottery", "GetByID")()

	row := r.db.QueryRow(ctx, `SELECT `+lotteryColumns+` FROM lotteries WHERE id = $1`, string(id))
	snapshot, err := scanLottery(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lottery %s: %w", id, err)
	}

	byID := map[entities.LotteryID]*entities.LotterySnapshot{id: snapshot}
	if err := r.loadChildren(ctx, byID, `WHERE lottery_id = $1`, string(id)); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// LoadAll returns every persisted snapshot ordered by creation time
func (r *LotteryRepository) LoadAll(ctx context.Context) ([]*entities.LotterySnapshot, error) {
	defer r.observer.MeasureDatabaseQuery("lottery", "LoadAll")()

	rows, err := r.db.Query(ctx, `SELECT `+lotteryColumns+` FROM lotteries ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load lotteries: %w", err)
	}
	defer rows.Close()

	var snapshots []*entities.LotterySnapshot
	byID := make(map[entities.LotteryID]*entities.LotterySnapshot)
	for rows.Next() {
		snapshot, err := scanLottery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lottery: %w", err)
		}
		snapshots = append(snapshots, snapshot)
		byID[snapshot.ID] = snapshot
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lotteries: %w", err)
	}

	if len(snapshots) == 0 {
		return snapshots, nil
	}
	if err := r.loadChildren(ctx, byID, ""); err != nil {
		return nil, err
	}
	return snapshots, nil
}

func scanLottery(row pgx.Row) (*entities.LotterySnapshot, error) {
	var (
		s         entities.LotterySnapshot
		id        string
		creator   string
		status    string
		requestID *string
		seed      []byte
	)
	err := row.Scan(
		&id,
		&creator,
		&s.Config.PaymentToken,
		&s.Config.TicketPrice,
		&s.Config.MaxTickets,
		&s.Config.MinTickets,
		&s.Config.StartTime,
		&s.Config.EndTime,
		&s.Config.DrawTime,
		&s.Config.PrizeShares,
		&status,
		&s.TicketsSold,
		&s.EscrowBalance,
		&requestID,
		&s.DrawRequestedAt,
		&seed,
		&s.Halted,
		&s.HaltReason,
		&s.CreatedAt,
		&s.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}

	s.ID = entities.LotteryID(id)
	s.Creator = entities.AccountID(creator)
	s.Status = entities.LotteryStatus(status)
	if requestID != nil {
		rid := entities.RequestID(*requestID)
		s.DrawRequestID = &rid
	}
	if seed != nil {
		if len(seed) != len(entities.Seed{}) {
			return nil, fmt.Errorf("lottery %s has a %d byte seed", id, len(seed))
		}
		var value entities.Seed
		copy(value[:], seed)
		s.Seed = &value
	}
	return &s, nil
}

// loadChildren fills blocks, winners and refunds for the snapshots in byID.
// filter is appended to each child query.
func (r *LotteryRepository) loadChildren(ctx context.Context, byID map[entities.LotteryID]*entities.LotterySnapshot, filter string, args ...any) error {
	rows, err := r.db.Query(ctx, `
		SELECT lottery_id, first_ticket, owner, count, purchased_at
		FROM ticket_blocks `+filter+`
		ORDER BY lottery_id, first_ticket
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to load ticket blocks: %w", err)
	}
	for rows.Next() {
		var id, owner string
		var b entities.TicketBlock
		if err := rows.Scan(&id, &b.FirstTicket, &owner, &b.Count, &b.PurchasedAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan ticket block: %w", err)
		}
		b.Owner = entities.AccountID(owner)
		if s, ok := byID[entities.LotteryID(id)]; ok {
			s.Blocks = append(s.Blocks, b)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate ticket blocks: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT lottery_id, tier_index, ticket_number, owner, payout_amount,
		       payout_status, attempts, last_error, paid_at
		FROM lottery_winners `+filter+`
		ORDER BY lottery_id, tier_index
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to load winners: %w", err)
	}
	for rows.Next() {
		var id, owner, status string
		var w entities.Winner
		if err := rows.Scan(&id, &w.TierIndex, &w.TicketNumber, &owner, &w.PayoutAmount,
			&status, &w.Attempts, &w.LastError, &w.PaidAt); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan winner: %w", err)
		}
		w.Owner = entities.AccountID(owner)
		w.PayoutStatus = entities.PayoutStatus(status)
		if s, ok := byID[entities.LotteryID(id)]; ok {
			s.Winners = append(s.Winners, w)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate winners: %w", err)
	}

	rows, err = r.db.Query(ctx, `
		SELECT lottery_id, first_ticket, owner, amount, refunded, refunded_at
		FROM refund_entries `+filter+`
		ORDER BY lottery_id, first_ticket
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to load refund entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, owner string
		var e entities.RefundEntry
		if err := rows.Scan(&id, &e.FirstTicket, &owner, &e.Amount, &e.Refunded, &e.RefundedAt); err != nil {
			return fmt.Errorf("failed to scan refund entry: %w", err)
		}
		e.Owner = entities.AccountID(owner)
		if s, ok := byID[entities.LotteryID(id)]; ok {
			s.Refunds = append(s.Refunds, e)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate refund entries: %w", err)
	}

	for _, s := range byID {
		normalizeTimes(s)
	}
	return nil
}

// normalizeTimes converts every timestamp to UTC so restored snapshots compare
// equal to in-memory ones
func normalizeTimes(s *entities.LotterySnapshot) {
	utc := func(t *time.Time) {
		if t != nil {
			*t = t.UTC()
		}
	}
	utc(&s.Config.StartTime)
	utc(&s.Config.EndTime)
	utc(&s.Config.DrawTime)
	utc(&s.CreatedAt)
	utc(s.DrawRequestedAt)
	utc(s.ResolvedAt)
	for i := range s.Blocks {
		utc(&s.Blocks[i].PurchasedAt)
	}
	for i := range s.Winners {
		utc(s.Winners[i].PaidAt)
	}
	for i := range s.Refunds {
		utc(s.Refunds[i].RefundedAt)
	}
}
