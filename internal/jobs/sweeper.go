package jobs

import (
	"log"
	"time"

	"github.com/reparto-ops/dispatch-backend/internal/models"
	"github.com/reparto-ops/dispatch-backend/internal/storage"
)

// QueueSweeper cancels pending queue slots whose start time has long passed
// without a check-in, and logs queue depth for operators.
type QueueSweeper struct {
	store      storage.Store
	interval   time.Duration
	maxPending time.Duration
	isRunning  bool
}

// NewQueueSweeper creates a sweeper that runs every interval and cancels
// pending slots older than maxPending.
func NewQueueSweeper(store storage.Store, interval, maxPending time.Duration) *QueueSweeper {
	return &QueueSweeper{
		store:      store,
		interval:   interval,
		maxPending: maxPending,
	}
}

// Start begins the sweep loop
func (q *QueueSweeper) Start() {
	if q.isRunning {
		log.Println("Queue sweeper already running")
		return
	}
	q.isRunning = true
	log.Printf("Starting queue sweeper (every %v, stale after %v)", q.interval, q.maxPending)
	go q.loop()
}

// Stop halts the sweep loop after the current pass
func (q *QueueSweeper) Stop() {
	q.isRunning = false
	log.Println("Stopping queue sweeper...")
}

func (q *QueueSweeper) loop() {
	for q.isRunning {
		time.Sleep(q.interval)
		if !q.isRunning {
			break
		}
		q.sweep()
	}
}

// sweep cancels stale pending slots. Future roster slots are untouched: a
// slot only counts as stale once its start time is maxPending in the past.
func (q *QueueSweeper) sweep() {
	cutoff := time.Now().Add(-q.maxPending)

	pending, err := q.store.GetDispatchRecordsByStatus(models.DispatchStatusPending)
	if err != nil {
		log.Printf("Queue sweep failed to list pending records: %v", err)
		return
	}

	stale := 0
	for _, rec := range pending {
		if rec.StartTime.After(cutoff) {
			continue
		}
		if err := q.store.CancelDriver(rec.DriverID); err != nil {
			log.Printf("Queue sweep failed to cancel stale slot %s: %v", rec.RecordID, err)
			continue
		}
		stale++
	}

	if snap, err := q.store.GetQueueSnapshot(); err == nil {
		log.Printf("Queue sweep done: %d stale cancelled, %d pending, %d queued, %d dispatched",
			stale, snap.Pending, snap.Queued, snap.Dispatched)
	}
}
