package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/events"
	"prizedraw/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// EngineDeps are the collaborators of a single lottery engine
type EngineDeps struct {
	Clock      interfaces.Clock
	Rail       interfaces.PaymentRail
	Oracle     interfaces.RandomnessOracle
	Publisher  interfaces.EventPublisher
	Repository interfaces.LotteryRepository // optional

	// OracleTimeout is how long a randomness request may stay unfulfilled before
	// RequestDraw is allowed to issue a fresh one. Zero disables re-requests.
	OracleTimeout time.Duration
}

// LotteryEngine is the single-writer state machine of one lottery. Every mutating
// call is serialized by the instance mutex; no lock is shared between instances.
// The mutex is never held across a PaymentRail call.
type LotteryEngine struct {
	mu sync.Mutex

	id      entities.LotteryID
	creator entities.AccountID
	cfg     entities.LotteryConfig
	deps    EngineDeps

	// status holds only explicit states (draw requested, completed, cancelled);
	// pending/active/sale ended are derived from the clock.
	status          entities.LotteryStatus
	ledger          entities.TicketLedger
	escrow          int64
	reserved        int64
	drawRequestID   *entities.RequestID
	drawRequestedAt *time.Time
	seed            *entities.Seed
	winners         []entities.Winner
	refunds         []entities.RefundEntry
	refundsInFlight map[entities.AccountID]bool
	payoutsInFlight bool
	halted          bool
	haltReason      string
	createdAt       time.Time
	resolvedAt      *time.Time
}

// NewLotteryEngine creates an engine for a validated configuration
func NewLotteryEngine(id entities.LotteryID, creator entities.AccountID, cfg entities.LotteryConfig, deps EngineDeps) *LotteryEngine {
	shares := make([]int64, len(cfg.PrizeShares))
	copy(shares, cfg.PrizeShares)
	cfg.PrizeShares = shares

	return &LotteryEngine{
		id:              id,
		creator:         creator,
		cfg:             cfg,
		deps:            deps,
		status:          entities.LotteryStatusPending,
		refundsInFlight: make(map[entities.AccountID]bool),
		createdAt:       deps.Clock.Now(),
	}
}

// RestoreLotteryEngine rebuilds an engine from a persisted snapshot
func RestoreLotteryEngine(snapshot *entities.LotterySnapshot, deps EngineDeps) (*LotteryEngine, error) {
	ledger, ok := entities.NewTicketLedger(snapshot.Blocks)
	if !ok {
		return nil, fmt.Errorf("%w: ticket blocks of lottery %s are not contiguous", ErrInvariantViolation, snapshot.ID)
	}
	if ledger.Total() != snapshot.TicketsSold {
		return nil, fmt.Errorf("%w: lottery %s ledger holds %d tickets, counter says %d",
			ErrInvariantViolation, snapshot.ID, ledger.Total(), snapshot.TicketsSold)
	}

	e := NewLotteryEngine(snapshot.ID, snapshot.Creator, snapshot.Config, deps)
	e.status = snapshot.Status
	if e.status == "" {
		e.status = entities.LotteryStatusPending
	}
	e.ledger = ledger
	e.escrow = snapshot.EscrowBalance
	e.drawRequestID = snapshot.DrawRequestID
	e.drawRequestedAt = snapshot.DrawRequestedAt
	e.seed = snapshot.Seed
	e.winners = append([]entities.Winner(nil), snapshot.Winners...)
	e.refunds = append([]entities.RefundEntry(nil), snapshot.Refunds...)
	e.halted = snapshot.Halted
	e.haltReason = snapshot.HaltReason
	e.createdAt = snapshot.CreatedAt
	e.resolvedAt = snapshot.ResolvedAt

	return e, nil
}

// ID returns the lottery identifier
func (e *LotteryEngine) ID() entities.LotteryID {
	return e.id
}

// Creator returns the account that created the lottery
func (e *LotteryEngine) Creator() entities.AccountID {
	return e.creator
}

// Config returns the immutable configuration
func (e *LotteryEngine) Config() entities.LotteryConfig {
	cfg := e.cfg
	cfg.PrizeShares = append([]int64(nil), e.cfg.PrizeShares...)
	return cfg
}

// CreatedAt returns the creation time
func (e *LotteryEngine) CreatedAt() time.Time {
	return e.createdAt
}

// BuyTickets sells quantity contiguous tickets to buyer. The buyer is debited
// through the payment rail before the ledger is touched; a failed transfer leaves
// the ledger unchanged.
func (e *LotteryEngine) BuyTickets(ctx context.Context, buyer entities.AccountID, quantity int64) (entities.TicketRange, error) {
	if quantity <= 0 {
		return entities.TicketRange{}, ErrInvalidQuantity
	}
	if buyer == "" {
		return entities.TicketRange{}, ErrInvalidAccount
	}

	e.mu.Lock()
	if e.halted {
		e.mu.Unlock()
		return entities.TicketRange{}, ErrHalted
	}
	now := e.deps.Clock.Now()
	if now.Before(e.cfg.StartTime) {
		e.mu.Unlock()
		return entities.TicketRange{}, ErrNotStarted
	}
	if !now.Before(e.cfg.EndTime) || e.status != entities.LotteryStatusPending {
		e.mu.Unlock()
		return entities.TicketRange{}, ErrEnded
	}
	if quantity > e.cfg.MaxTickets-e.ledger.Total()-e.reserved {
		e.mu.Unlock()
		return entities.TicketRange{}, ErrExceedsMax
	}
	// capacity is held while the transfer is in flight so concurrent buyers
	// cannot oversell
	e.reserved += quantity
	e.mu.Unlock()

	amount := e.cfg.Cost(quantity)
	transferErr := e.deps.Rail.TransferIn(ctx, buyer, amount)

	e.mu.Lock()
	e.reserved -= quantity
	if transferErr != nil {
		e.mu.Unlock()
		log.WithError(transferErr).WithFields(log.Fields{
			"lotteryID": e.id,
			"buyer":     buyer,
			"amount":    amount,
		}).Warn("Ticket purchase transfer failed")
		return entities.TicketRange{}, fmt.Errorf("%w: %v", ErrTransferFailed, transferErr)
	}
	// the sale closed or the draw was requested while the transfer was in flight
	committedAt := e.deps.Clock.Now()
	if e.halted || e.status != entities.LotteryStatusPending || !committedAt.Before(e.cfg.EndTime) {
		e.mu.Unlock()
		e.compensate(ctx, buyer, amount)
		return entities.TicketRange{}, ErrEnded
	}

	ticketRange := e.ledger.Append(buyer, quantity, committedAt)
	e.escrow += amount

	if err := e.persistLocked(ctx); err != nil {
		e.ledger.RemoveLast()
		e.escrow -= amount
		e.mu.Unlock()
		e.compensate(ctx, buyer, amount)
		return entities.TicketRange{}, fmt.Errorf("failed to persist ticket purchase: %w", err)
	}
	sold := e.ledger.Total()
	e.mu.Unlock()

	log.WithFields(log.Fields{
		"lotteryID":   e.id,
		"buyer":       buyer,
		"first":       ticketRange.First,
		"last":        ticketRange.Last,
		"ticketsSold": sold,
	}).Info("Tickets purchased")

	e.publish(events.TicketsPurchasedEvent{
		LotteryID:   e.id,
		Buyer:       buyer,
		Range:       ticketRange,
		TicketsSold: sold,
		Amount:      amount,
	})

	return ticketRange, nil
}

// compensate returns funds taken for a purchase that could not be committed
func (e *LotteryEngine) compensate(ctx context.Context, buyer entities.AccountID, amount int64) {
	if err := e.deps.Rail.TransferOut(ctx, buyer, amount); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"lotteryID": e.id,
			"buyer":     buyer,
			"amount":    amount,
		}).Error("Failed to return funds for uncommitted purchase, manual intervention required")
	}
}

// RequestDraw resolves the sale. An under-subscribed lottery is cancelled; otherwise
// a randomness request is issued and the lottery waits for FulfillDraw.
//
// The oracle's Request is called with the instance lock held, so oracles must
// deliver fulfilments asynchronously.
func (e *LotteryEngine) RequestDraw(ctx context.Context) error {
	e.mu.Lock()
	if e.halted {
		e.mu.Unlock()
		return ErrHalted
	}
	now := e.deps.Clock.Now()
	if now.Before(e.cfg.DrawTime) {
		e.mu.Unlock()
		return ErrTooEarly
	}

	switch e.status {
	case entities.LotteryStatusCompleted, entities.LotteryStatusCancelled:
		e.mu.Unlock()
		return ErrAlreadyDrawn
	case entities.LotteryStatusDrawRequested:
		if !e.oracleTimedOutLocked(now) {
			e.mu.Unlock()
			return ErrAlreadyDrawn
		}
		return e.issueRequestLocked(ctx, now, true)
	}

	if e.ledger.Total() < e.cfg.MinTickets || e.ledger.DistinctOwners() < e.cfg.TierCount() {
		return e.cancelLocked(ctx, now)
	}
	return e.issueRequestLocked(ctx, now, false)
}

func (e *LotteryEngine) oracleTimedOutLocked(now time.Time) bool {
	if e.deps.OracleTimeout <= 0 || e.drawRequestedAt == nil || e.winners != nil {
		return false
	}
	return !now.Before(e.drawRequestedAt.Add(e.deps.OracleTimeout))
}

// issueRequestLocked must be called with the lock held and releases it
func (e *LotteryEngine) issueRequestLocked(ctx context.Context, now time.Time, reissue bool) error {
	requestID, err := e.deps.Oracle.Request(ctx, e.id)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	prevStatus, prevID, prevAt := e.status, e.drawRequestID, e.drawRequestedAt
	e.status = entities.LotteryStatusDrawRequested
	e.drawRequestID = &requestID
	e.drawRequestedAt = &now

	if err := e.persistLocked(ctx); err != nil {
		e.status, e.drawRequestID, e.drawRequestedAt = prevStatus, prevID, prevAt
		e.mu.Unlock()
		return fmt.Errorf("failed to persist draw request: %w", err)
	}
	e.mu.Unlock()

	log.WithFields(log.Fields{
		"lotteryID": e.id,
		"requestID": requestID,
		"reissued":  reissue,
	}).Info("Randomness requested for lottery draw")

	e.publish(events.DrawRequestedEvent{LotteryID: e.id, RequestID: requestID, Reissued: reissue})
	return nil
}

// cancelLocked must be called with the lock held and releases it
func (e *LotteryEngine) cancelLocked(ctx context.Context, now time.Time) error {
	refunds := make([]entities.RefundEntry, 0, e.ledger.Len())
	for _, b := range e.ledger.Blocks() {
		refunds = append(refunds, entities.RefundEntry{
			Owner:       b.Owner,
			FirstTicket: b.FirstTicket,
			Amount:      e.cfg.Cost(b.Count),
		})
	}

	e.status = entities.LotteryStatusCancelled
	e.refunds = refunds
	e.resolvedAt = &now

	if err := e.persistLocked(ctx); err != nil {
		e.status = entities.LotteryStatusPending
		e.refunds = nil
		e.resolvedAt = nil
		e.mu.Unlock()
		return fmt.Errorf("failed to persist cancellation: %w", err)
	}
	sold := e.ledger.Total()
	e.mu.Unlock()

	log.WithFields(log.Fields{
		"lotteryID":   e.id,
		"ticketsSold": sold,
		"minTickets":  e.cfg.MinTickets,
	}).Info("Lottery cancelled, refunds open")

	e.publish(events.LotteryCancelledEvent{LotteryID: e.id, TicketsSold: sold, MinTickets: e.cfg.MinTickets})
	return nil
}

// FulfillDraw is the oracle callback. It selects winners exactly once and pays
// them in tier order. A failed payout is recorded against that winner only and
// can be retried with RetryPayouts.
func (e *LotteryEngine) FulfillDraw(ctx context.Context, requestID entities.RequestID, seed entities.Seed) error {
	e.mu.Lock()
	if e.halted {
		e.mu.Unlock()
		return ErrHalted
	}
	if e.status != entities.LotteryStatusDrawRequested || e.drawRequestID == nil ||
		*e.drawRequestID != requestID || e.winners != nil {
		status := e.status
		e.mu.Unlock()
		log.WithFields(log.Fields{
			"lotteryID": e.id,
			"requestID": requestID,
			"status":    status,
		}).Warn("Rejected randomness fulfilment")
		return ErrUnknownRequest
	}

	if err := e.checkInvariantsLocked(); err != nil {
		e.haltLocked(ctx, err.Error())
		e.mu.Unlock()
		return err
	}

	selections, err := SelectWinners(seed, e.ledger, e.cfg.TierCount())
	if err != nil {
		e.haltLocked(ctx, err.Error())
		e.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	if err := checkDistinct(selections); err != nil {
		e.haltLocked(ctx, err.Error())
		e.mu.Unlock()
		return err
	}

	payouts, err := ComputePayouts(e.escrow, e.cfg.PrizeShares)
	if err != nil {
		e.haltLocked(ctx, err.Error())
		e.mu.Unlock()
		return err
	}

	winners := make([]entities.Winner, len(selections))
	for i, sel := range selections {
		winners[i] = entities.Winner{
			TierIndex:    i,
			TicketNumber: sel.TicketNumber,
			Owner:        sel.Owner,
			PayoutAmount: payouts[i],
			PayoutStatus: entities.PayoutStatusPending,
		}
	}
	e.winners = winners
	e.seed = &seed

	if err := e.persistLocked(ctx); err != nil {
		e.winners = nil
		e.seed = nil
		e.mu.Unlock()
		return fmt.Errorf("failed to persist winners: %w", err)
	}
	e.mu.Unlock()

	log.WithFields(log.Fields{
		"lotteryID": e.id,
		"requestID": requestID,
		"winners":   len(winners),
	}).Info("Lottery winners selected")

	return e.payOut(ctx)
}

// RetryPayouts re-attempts payouts that failed or never ran. Winner selection is
// never repeated. Returns nil when nothing is owed.
func (e *LotteryEngine) RetryPayouts(ctx context.Context) error {
	e.mu.Lock()
	if e.halted {
		e.mu.Unlock()
		return ErrHalted
	}
	owed := e.status == entities.LotteryStatusDrawRequested && e.winners != nil
	e.mu.Unlock()
	if !owed {
		return nil
	}
	return e.payOut(ctx)
}

type payoutTarget struct {
	index  int
	owner  entities.AccountID
	amount int64
}

func (e *LotteryEngine) payOut(ctx context.Context) error {
	e.mu.Lock()
	if e.payoutsInFlight {
		e.mu.Unlock()
		return ErrPayoutInProgress
	}
	var targets []payoutTarget
	for i := range e.winners {
		if !e.winners[i].IsPaid() {
			targets = append(targets, payoutTarget{index: i, owner: e.winners[i].Owner, amount: e.winners[i].PayoutAmount})
		}
	}
	e.payoutsInFlight = true
	e.mu.Unlock()

	var failed int
	for _, target := range targets {
		var err error
		if target.amount > 0 {
			err = e.deps.Rail.TransferOut(ctx, target.owner, target.amount)
		}

		e.mu.Lock()
		w := &e.winners[target.index]
		w.Attempts++
		if err != nil {
			w.MarkFailed(err)
		} else {
			w.MarkPaid(e.deps.Clock.Now())
			e.escrow -= target.amount
		}
		e.persistBestEffortLocked(ctx)
		e.mu.Unlock()

		if err != nil {
			failed++
			log.WithError(err).WithFields(log.Fields{
				"lotteryID": e.id,
				"tier":      target.index,
				"owner":     target.owner,
				"amount":    target.amount,
			}).Error("Prize payout failed")
			e.publish(events.PayoutFailedEvent{
				LotteryID: e.id,
				TierIndex: target.index,
				Owner:     target.owner,
				Amount:    target.amount,
				Error:     err.Error(),
			})
		}
	}

	e.mu.Lock()
	e.payoutsInFlight = false
	if failed > 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %d of %d payouts failed", ErrPayoutFailed, failed, len(targets))
	}
	if e.status != entities.LotteryStatusDrawRequested {
		e.mu.Unlock()
		return nil
	}

	if e.escrow != 0 {
		reason := fmt.Sprintf("escrow balance %d left after all payouts", e.escrow)
		e.haltLocked(ctx, reason)
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrInvariantViolation, reason)
	}

	now := e.deps.Clock.Now()
	e.status = entities.LotteryStatusCompleted
	e.resolvedAt = &now
	e.persistBestEffortLocked(ctx)
	winners := append([]entities.Winner(nil), e.winners...)
	prizePool := e.cfg.Cost(e.ledger.Total())
	e.mu.Unlock()

	log.WithFields(log.Fields{
		"lotteryID": e.id,
		"prizePool": prizePool,
		"winners":   len(winners),
	}).Info("Lottery draw completed")

	e.publish(events.DrawCompletedEvent{LotteryID: e.id, Winners: winners, PrizePool: prizePool})
	return nil
}

// ClaimRefund returns all of buyer's unrefunded ticket money on a cancelled
// lottery. A second call after a successful claim refunds nothing and succeeds.
func (e *LotteryEngine) ClaimRefund(ctx context.Context, buyer entities.AccountID) (int64, error) {
	if buyer == "" {
		return 0, ErrInvalidAccount
	}

	e.mu.Lock()
	if e.halted {
		e.mu.Unlock()
		return 0, ErrHalted
	}
	if e.status != entities.LotteryStatusCancelled {
		e.mu.Unlock()
		return 0, ErrNotCancelled
	}
	if e.refundsInFlight[buyer] {
		e.mu.Unlock()
		return 0, ErrRefundInProgress
	}

	var indexes []int
	var amount int64
	for i := range e.refunds {
		if e.refunds[i].Owner == buyer && !e.refunds[i].Refunded {
			indexes = append(indexes, i)
			amount += e.refunds[i].Amount
		}
	}
	if amount == 0 {
		e.mu.Unlock()
		return 0, nil
	}
	e.refundsInFlight[buyer] = true
	e.mu.Unlock()

	transferErr := e.deps.Rail.TransferOut(ctx, buyer, amount)

	e.mu.Lock()
	delete(e.refundsInFlight, buyer)
	if transferErr != nil {
		e.mu.Unlock()
		log.WithError(transferErr).WithFields(log.Fields{
			"lotteryID": e.id,
			"buyer":     buyer,
			"amount":    amount,
		}).Warn("Refund transfer failed")
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, transferErr)
	}
	now := e.deps.Clock.Now()
	for _, i := range indexes {
		e.refunds[i].Refunded = true
		e.refunds[i].RefundedAt = &now
	}
	e.escrow -= amount
	e.persistBestEffortLocked(ctx)
	e.mu.Unlock()

	log.WithFields(log.Fields{
		"lotteryID": e.id,
		"buyer":     buyer,
		"amount":    amount,
	}).Info("Refund claimed")

	e.publish(events.RefundClaimedEvent{LotteryID: e.id, Buyer: buyer, Amount: amount})
	return amount, nil
}

// Details returns the read-only snapshot exposed to collaborators
func (e *LotteryEngine) Details() entities.LotteryDetails {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := entities.DeriveStatus(e.status, e.cfg, e.deps.Clock.Now())
	return entities.LotteryDetails{
		ID:           e.id,
		PaymentToken: e.cfg.PaymentToken,
		TicketPrice:  e.cfg.TicketPrice,
		MaxTickets:   e.cfg.MaxTickets,
		MinTickets:   e.cfg.MinTickets,
		StartTime:    e.cfg.StartTime,
		EndTime:      e.cfg.EndTime,
		DrawTime:     e.cfg.DrawTime,
		TicketsSold:  e.ledger.Total(),
		Status:       status,
		StatusCode:   status.Code(),
	}
}

// Status returns the current status
func (e *LotteryEngine) Status() entities.LotteryStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return entities.DeriveStatus(e.status, e.cfg, e.deps.Clock.Now())
}

// EscrowBalance returns the funds currently held for the lottery
func (e *LotteryEngine) EscrowBalance() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.escrow
}

// Winners returns the resolved winners in tier order, or nil before the draw
func (e *LotteryEngine) Winners() []entities.Winner {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.winners == nil {
		return nil
	}
	return append([]entities.Winner(nil), e.winners...)
}

// Refunds returns the refund ledger, populated only on the cancelled path
func (e *LotteryEngine) Refunds() []entities.RefundEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]entities.RefundEntry(nil), e.refunds...)
}

// TicketsOf returns buyer's ticket blocks
func (e *LotteryEngine) TicketsOf(buyer entities.AccountID) []entities.TicketBlock {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.TicketsOf(buyer)
}

// Participants returns ticket counts per participant
func (e *LotteryEngine) Participants() []entities.ParticipantInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.ParticipantSummary()
}

// HasPendingPayouts reports whether winners are recorded but not all paid
func (e *LotteryEngine) HasPendingPayouts() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status == entities.LotteryStatusDrawRequested && e.winners != nil && !e.payoutsInFlight
}

// Halted reports whether the engine stopped on an invariant violation
func (e *LotteryEngine) Halted() (bool, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted, e.haltReason
}

// Snapshot returns the complete state for persistence and auditing
func (e *LotteryEngine) Snapshot() *entities.LotterySnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *LotteryEngine) snapshotLocked() *entities.LotterySnapshot {
	snapshot := &entities.LotterySnapshot{
		ID:            e.id,
		Creator:       e.creator,
		Config:        e.Config(),
		Status:        e.status,
		TicketsSold:   e.ledger.Total(),
		EscrowBalance: e.escrow,
		Blocks:        e.ledger.Blocks(),
		Halted:        e.halted,
		HaltReason:    e.haltReason,
		CreatedAt:     e.createdAt,
	}
	if e.drawRequestID != nil {
		id := *e.drawRequestID
		snapshot.DrawRequestID = &id
	}
	if e.drawRequestedAt != nil {
		at := *e.drawRequestedAt
		snapshot.DrawRequestedAt = &at
	}
	if e.seed != nil {
		seed := *e.seed
		snapshot.Seed = &seed
	}
	if e.resolvedAt != nil {
		at := *e.resolvedAt
		snapshot.ResolvedAt = &at
	}
	if e.winners != nil {
		snapshot.Winners = append([]entities.Winner(nil), e.winners...)
	}
	if e.refunds != nil {
		snapshot.Refunds = append([]entities.RefundEntry(nil), e.refunds...)
	}
	return snapshot
}

func (e *LotteryEngine) checkInvariantsLocked() error {
	if expected := e.cfg.Cost(e.ledger.Total()); e.escrow != expected {
		return fmt.Errorf("%w: escrow %d, expected %d for %d tickets",
			ErrInvariantViolation, e.escrow, expected, e.ledger.Total())
	}
	if err := entities.ValidatePrizeShares(e.cfg.PrizeShares); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	return nil
}

func checkDistinct(selections []Selection) error {
	tickets := make(map[int64]struct{}, len(selections))
	owners := make(map[entities.AccountID]struct{}, len(selections))
	for _, sel := range selections {
		if _, dup := tickets[sel.TicketNumber]; dup {
			return fmt.Errorf("%w: duplicate winning ticket %d", ErrInvariantViolation, sel.TicketNumber)
		}
		if _, dup := owners[sel.Owner]; dup {
			return fmt.Errorf("%w: owner %s won more than one tier", ErrInvariantViolation, sel.Owner)
		}
		tickets[sel.TicketNumber] = struct{}{}
		owners[sel.Owner] = struct{}{}
	}
	return nil
}

func (e *LotteryEngine) haltLocked(ctx context.Context, reason string) {
	e.halted = true
	e.haltReason = reason
	log.WithFields(log.Fields{
		"lotteryID": e.id,
		"reason":    reason,
	}).Error("Lottery halted on invariant violation")
	e.persistBestEffortLocked(ctx)
}

func (e *LotteryEngine) persistLocked(ctx context.Context) error {
	if e.deps.Repository == nil {
		return nil
	}
	return e.deps.Repository.Save(ctx, e.snapshotLocked())
}

// persistBestEffortLocked is used after funds have already moved: the in-memory
// state is authoritative and is written again by the next successful save.
func (e *LotteryEngine) persistBestEffortLocked(ctx context.Context) {
	if err := e.persistLocked(ctx); err != nil {
		log.WithError(err).WithField("lotteryID", e.id).Error("Failed to persist lottery state")
	}
}

func (e *LotteryEngine) publish(event events.Event) {
	if e.deps.Publisher == nil {
		return
	}
	if err := e.deps.Publisher.Publish(event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"lotteryID": e.id,
			"eventType": event.Type(),
		}).Error("Failed to publish lottery event")
	}
}

// IsPrecondition reports whether err is a user-facing precondition failure
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrInvalidQuantity, ErrInvalidAccount, ErrNotStarted, ErrEnded, ErrExceedsMax,
		ErrTooEarly, ErrAlreadyDrawn, ErrNotCancelled, ErrRefundInProgress, ErrPayoutInProgress,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
