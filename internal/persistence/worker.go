package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"StakeLedger/internal/observability"
)

// Output mirrors ledger.Output to avoid an import cycle. The
// orchestrator (cmd/stakeledger) bridges between the two.
type Output struct {
	Notification NotificationRow
	Pool         PoolRow
	Position     *PositionRow
}

// Worker drains the persist channel and batch-writes to Postgres.
// The engine sends to this channel with blocking sends, so if the
// worker falls behind the engine stalls rather than lose a record.
type Worker struct {
	writer       *Writer
	inputChan    <-chan Output
	batchSize    int
	flushTimeout time.Duration
	metrics      *observability.Metrics
	logger       zerolog.Logger
}

func NewWorker(
	db *sql.DB,
	inputChan <-chan Output,
	batchSize int,
	flushTimeout time.Duration,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *Worker {
	return &Worker{
		writer:       NewWriter(db),
		inputChan:    inputChan,
		batchSize:    batchSize,
		flushTimeout: flushTimeout,
		metrics:      metrics,
		logger:       logger,
	}
}

// Run batches incoming outputs and flushes when the batch fills or the
// flush timeout expires. Blocks until ctx is cancelled or the input
// channel closes; remaining outputs are flushed on the way out.
func (w *Worker) Run(ctx context.Context) error {
	batch := make([]Output, 0, w.batchSize)

	timer := time.NewTimer(w.flushTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				w.flush(context.Background(), batch)
			}
			return ctx.Err()

		case out, ok := <-w.inputChan:
			if !ok {
				if len(batch) > 0 {
					w.flush(context.Background(), batch)
				}
				return nil
			}

			batch = append(batch, out)
			if len(batch) >= w.batchSize {
				w.flush(ctx, batch)
				batch = batch[:0]
				resetTimer(timer, w.flushTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				w.flush(ctx, batch)
				batch = batch[:0]
			}
			timer.Reset(w.flushTimeout)
		}
	}
}

func (w *Worker) flush(ctx context.Context, batch []Output) {
	start := time.Now()

	notifications := make([]NotificationRow, 0, len(batch))
	// Last snapshot per aggregate wins within a batch.
	poolIdx := make(map[int]int)
	pools := make([]PoolRow, 0, len(batch))
	type posKey struct {
		PoolID int
		UserID string
	}
	posIdx := make(map[posKey]int)
	positions := make([]PositionRow, 0, len(batch))

	var lastSeq int64
	for _, out := range batch {
		notifications = append(notifications, out.Notification)
		lastSeq = out.Notification.Sequence

		if i, ok := poolIdx[out.Pool.ID]; ok {
			pools[i] = out.Pool
		} else {
			poolIdx[out.Pool.ID] = len(pools)
			pools = append(pools, out.Pool)
		}

		if out.Position != nil {
			key := posKey{PoolID: out.Position.PoolID, UserID: out.Position.UserID}
			if i, ok := posIdx[key]; ok {
				positions[i] = *out.Position
			} else {
				posIdx[key] = len(positions)
				positions = append(positions, *out.Position)
			}
		}
	}

	if err := w.writer.WriteNotificationBatch(ctx, notifications); err != nil {
		w.fail("notifications", err)
		return
	}
	if err := w.writer.UpsertPools(ctx, pools); err != nil {
		w.fail("pools", err)
		return
	}
	if err := w.writer.UpsertPositions(ctx, positions); err != nil {
		w.fail("positions", err)
		return
	}
	if err := w.writer.SetWatermark(ctx, lastSeq); err != nil {
		w.fail("watermark", err)
		return
	}

	if w.metrics != nil {
		w.metrics.PersistRowsWritten.Add(float64(len(notifications) + len(pools) + len(positions)))
		w.metrics.PersistBatchSize.Observe(float64(len(batch)))
		w.metrics.PersistBatchDur.Observe(time.Since(start).Seconds())
		w.metrics.PersistLastSeq.Set(float64(lastSeq))
	}
}

func (w *Worker) fail(table string, err error) {
	w.logger.Error().Str("table", table).Err(err).Msg("persist batch failed")
	if w.metrics != nil {
		w.metrics.PersistErrors.WithLabelValues(table).Inc()
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
