package application

import (
	"sync"

	"prizedraw/domain/entities"
)

// lotteryTasks runs work for many lotteries concurrently while keeping at most
// one task in flight per lottery
type lotteryTasks struct {
	mu   sync.Mutex
	busy map[entities.LotteryID]struct{}
	wg   sync.WaitGroup
}

func newLotteryTasks() *lotteryTasks {
	return &lotteryTasks{busy: make(map[entities.LotteryID]struct{})}
}

// TryGo starts fn for id unless a task for id is still running
func (t *lotteryTasks) TryGo(id entities.LotteryID, fn func()) bool {
	t.mu.Lock()
	if _, running := t.busy[id]; running {
		t.mu.Unlock()
		return false
	}
	t.busy[id] = struct{}{}
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer func() {
			t.mu.Lock()
			delete(t.busy, id)
			t.mu.Unlock()
			t.wg.Done()
		}()
		fn()
	}()
	return true
}

// Running reports whether a task for id is in flight
func (t *lotteryTasks) Running(id entities.LotteryID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, running := t.busy[id]
	return running
}

// Wait blocks until every started task has returned
func (t *lotteryTasks) Wait() {
	t.wg.Wait()
}
