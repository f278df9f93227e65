package notify_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"StakeLedger/internal/notify"
)

var (
	user = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	ts   = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
)

func TestLog_AppendAssignsSequences(t *testing.T) {
	log := notify.NewLog(0, nil, nil)

	r1 := log.Append(notify.KindDeposit, 0, user, 100, ts)
	r2 := log.Append(notify.KindWithdraw, 0, user, 40, ts)

	if r1.Sequence != 0 || r2.Sequence != 1 {
		t.Errorf("got sequences %d, %d, want 0, 1", r1.Sequence, r2.Sequence)
	}
	if log.NextSequence() != 2 {
		t.Errorf("got next sequence %d, want 2", log.NextSequence())
	}
}

func TestLog_ResumesFromStartSequence(t *testing.T) {
	log := notify.NewLog(42, nil, nil)

	rec := log.Append(notify.KindDeposit, 1, user, 5, ts)
	if rec.Sequence != 42 {
		t.Errorf("got sequence %d, want 42", rec.Sequence)
	}
}

func TestLog_RecordsReturnsCopy(t *testing.T) {
	log := notify.NewLog(0, nil, nil)
	log.Append(notify.KindDeposit, 0, user, 100, ts)

	recs := log.Records()
	recs[0].Amount = 999

	if log.Records()[0].Amount != 100 {
		t.Error("Records must return a copy")
	}
}

func TestLog_PersistChannelReceivesEveryRecord(t *testing.T) {
	persist := make(chan notify.Record, 4)
	log := notify.NewLog(0, persist, nil)

	log.Append(notify.KindDeposit, 0, user, 100, ts)
	log.Append(notify.KindWithdraw, 0, user, 40, ts)

	for i := 0; i < 2; i++ {
		select {
		case rec := <-persist:
			if rec.Sequence != int64(i) {
				t.Errorf("got sequence %d, want %d", rec.Sequence, i)
			}
		default:
			t.Fatalf("record %d missing from persist channel", i)
		}
	}
}

func TestLog_PublishDropsWhenChannelFull(t *testing.T) {
	publish := make(chan notify.Record, 1)
	log := notify.NewLog(0, nil, publish)

	log.Append(notify.KindDeposit, 0, user, 1, ts)
	log.Append(notify.KindDeposit, 0, user, 2, ts) // channel full, dropped

	if log.PublishDrops() != 1 {
		t.Errorf("got %d drops, want 1", log.PublishDrops())
	}
	// The log itself keeps everything.
	if log.Len() != 2 {
		t.Errorf("got %d records, want 2", log.Len())
	}
}
