package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"prizedraw/domain/entities"
	"prizedraw/domain/interfaces"
	"prizedraw/domain/services"

	log "github.com/sirupsen/logrus"
)

// DrawWorker drives lotteries past their draw time. Each pass requests draws
// that are due, re-requests randomness that timed out and retries payouts
// that failed. Lotteries are handled on their own goroutines, so a stalled
// transfer on one never delays another.
type DrawWorker struct {
	lotteries LotterySource
	clock     interfaces.Clock
	interval  time.Duration
	tasks     *lotteryTasks
}

// DrawPassResult summarises one pass over the registry
type DrawPassResult struct {
	DrawsRequested int
	Reissued       int
	PayoutsRetried int
	Failures       int
	Busy           int
}

type drawAction int

const (
	actionNone drawAction = iota
	actionDrawRequested
	actionReissued
	actionPayoutsRetried
	actionFailed
)

func (r *DrawPassResult) add(action drawAction) {
	switch action {
	case actionDrawRequested:
		r.DrawsRequested++
	case actionReissued:
		r.Reissued++
	case actionPayoutsRetried:
		r.PayoutsRetried++
	case actionFailed:
		r.Failures++
	}
}

// NewDrawWorker creates a new draw worker
func NewDrawWorker(lotteries LotterySource, clock interfaces.Clock, interval time.Duration) *DrawWorker {
	if clock == nil {
		clock = services.SystemClock{}
	}
	return &DrawWorker{
		lotteries: lotteries,
		clock:     clock,
		interval:  interval,
		tasks:     newLotteryTasks(),
	}
}

// Start begins the draw worker and returns a function that stops it. Stopping
// waits for the loop and for lottery tasks still in flight.
func (w *DrawWorker) Start(ctx context.Context) func() {
	stopChan := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		log.WithField("interval", w.interval).Info("Draw worker started")

		for {
			w.schedule(ctx, nil, nil)

			select {
			case <-ctx.Done():
				log.Info("Draw worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Draw worker shutting down (stop requested)...")
				return
			case <-time.After(w.interval):
			}
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() {
			close(stopChan)
			<-done
			w.tasks.Wait()
		})
	}
}

// RunOnce makes a single pass over every lottery and waits for the tasks it
// started. Lotteries whose previous task is still running are counted as busy.
func (w *DrawWorker) RunOnce(ctx context.Context) DrawPassResult {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result DrawPassResult
	)
	busy := w.schedule(ctx, &wg, func(action drawAction) {
		mu.Lock()
		result.add(action)
		mu.Unlock()
	})
	wg.Wait()

	result.Busy = busy
	if result != (DrawPassResult{}) {
		log.WithFields(log.Fields{
			"drawsRequested": result.DrawsRequested,
			"reissued":       result.Reissued,
			"payoutsRetried": result.PayoutsRetried,
			"failures":       result.Failures,
			"busy":           result.Busy,
		}).Info("Completed draw worker pass")
	}
	return result
}

// schedule starts a task for every lottery that is not already busy. Nothing
// here touches an engine's lock, which a stalled collaborator call may hold.
// It returns how many were skipped as busy. pending and report are optional;
// pending is released and report called once per started task.
func (w *DrawWorker) schedule(ctx context.Context, pending *sync.WaitGroup, report func(drawAction)) int {
	now := w.clock.Now()
	busy := 0

	for _, engine := range w.lotteries.List() {
		if ctx.Err() != nil {
			break
		}
		if pending != nil {
			pending.Add(1)
		}
		started := w.tasks.TryGo(engine.ID(), func() {
			if pending != nil {
				defer pending.Done()
			}
			action := w.processLottery(ctx, engine, now)
			if report != nil {
				report(action)
			}
		})
		if !started {
			busy++
			if pending != nil {
				pending.Done()
			}
		}
	}
	return busy
}

func (w *DrawWorker) processLottery(ctx context.Context, engine *services.LotteryEngine, now time.Time) drawAction {
	if halted, _ := engine.Halted(); halted {
		return actionNone
	}
	logger := log.WithField("lotteryID", engine.ID())

	switch engine.Status() {
	case entities.LotteryStatusSaleEnded:
		if now.Before(engine.Config().DrawTime) {
			return actionNone
		}
		if err := engine.RequestDraw(ctx); err != nil {
			logger.WithError(err).Error("Failed to request draw")
			return actionFailed
		}
		return actionDrawRequested

	case entities.LotteryStatusDrawRequested:
		if engine.HasPendingPayouts() {
			if err := engine.RetryPayouts(ctx); err != nil {
				logger.WithError(err).Warn("Payout retry did not complete")
				return actionFailed
			}
			return actionPayoutsRetried
		}
		if engine.Winners() != nil {
			return actionNone
		}
		// RequestDraw only reissues once the oracle timeout has elapsed
		err := engine.RequestDraw(ctx)
		switch {
		case err == nil:
			return actionReissued
		case errors.Is(err, services.ErrAlreadyDrawn):
		default:
			logger.WithError(err).Error("Failed to reissue randomness request")
			return actionFailed
		}
	}
	return actionNone
}
