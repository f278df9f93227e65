package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"StakeLedger/internal/pool"
)

// Kind discriminates notification records.
type Kind int32

const (
	KindUnknown Kind = iota
	KindDeposit
	KindWithdraw
	KindPoolCreated
)

func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return "Deposit"
	case KindWithdraw:
		return "Withdraw"
	case KindPoolCreated:
		return "PoolCreated"
	default:
		return "Unknown"
	}
}

// Record is one immutable entry in the notification log.
type Record struct {
	// Sequence is assigned at append time and strictly increases.
	Sequence  int64
	Kind      Kind
	PoolID    pool.ID
	UserID    uuid.UUID
	Amount    int64
	Timestamp time.Time
}

// Log is the append-only record of ledger-affecting actions. It is an
// audit trail, not a pub/sub channel: appends never fail, ordering is
// strictly append order, and external delivery is best-effort.
//
// Each appended record is forwarded to the persist channel with a
// blocking send (no record is lost) and to the publish channel with a
// non-blocking send (consumers can re-read from storage). Either
// channel may be nil.
type Log struct {
	mu      sync.Mutex
	records []Record
	nextSeq int64

	persistChan chan<- Record
	publishChan chan<- Record
	dropped     int64
}

func NewLog(startSequence int64, persistChan, publishChan chan<- Record) *Log {
	return &Log{
		nextSeq:     startSequence,
		persistChan: persistChan,
		publishChan: publishChan,
	}
}

// Append records one entry with the given timestamp and returns it with
// its assigned sequence.
func (l *Log) Append(kind Kind, poolID pool.ID, userID uuid.UUID, amount int64, ts time.Time) Record {
	l.mu.Lock()
	rec := Record{
		Sequence:  l.nextSeq,
		Kind:      kind,
		PoolID:    poolID,
		UserID:    userID,
		Amount:    amount,
		Timestamp: ts,
	}
	l.nextSeq++
	l.records = append(l.records, rec)
	l.mu.Unlock()

	if l.persistChan != nil {
		l.persistChan <- rec
	}
	if l.publishChan != nil {
		select {
		case l.publishChan <- rec:
		default:
			l.mu.Lock()
			l.dropped++
			l.mu.Unlock()
		}
	}

	return rec
}

// Len returns the number of records appended so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Records returns a copy of the log in append order.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// NextSequence returns the sequence the next append will receive.
func (l *Log) NextSequence() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextSeq
}

// PublishDrops returns how many records missed the publish channel.
func (l *Log) PublishDrops() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}
