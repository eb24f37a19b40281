package sqlite

import (
	"testing"
	"time"

	"github.com/walker79/offline-atc/pkg/logger"
)

func testStorage(t *testing.T) *TransmissionStorage {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	storage, err := Open(t.TempDir(), log)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestStoreAndGetTransmissions(t *testing.T) {
	storage := testStorage(t)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	records := []*TransmissionRecord{
		{CreatedAt: base, Message: "Speedbird One Two Three, pushback approved, tail north.", Position: "Ground", Phase: "Pushback Approved", Frequency: "121.700"},
		{CreatedAt: base.Add(time.Minute), Message: "Speedbird One Two Three, runway Two Seven Romeo, line up and wait.", Position: "Tower", Phase: "Taxi Out", Frequency: "118.300", DelayMS: 3000},
	}
	for _, rec := range records {
		id, err := storage.StoreTransmission(rec)
		if err != nil {
			t.Fatalf("store: %v", err)
		}
		if id <= 0 {
			t.Fatalf("got id %d", id)
		}
	}

	got, err := storage.GetTransmissions(10, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	// Newest first
	if got[0].Position != "Tower" || got[1].Position != "Ground" {
		t.Errorf("order wrong: %s then %s", got[0].Position, got[1].Position)
	}
	if got[0].DelayMS != 3000 {
		t.Errorf("delay_ms = %d", got[0].DelayMS)
	}
	if !got[1].CreatedAt.Equal(base) {
		t.Errorf("created_at = %v, want %v", got[1].CreatedAt, base)
	}

	byPos, err := storage.GetTransmissionsByPosition("Tower", 10, 0)
	if err != nil {
		t.Fatalf("get by position: %v", err)
	}
	if len(byPos) != 1 || byPos[0].Position != "Tower" {
		t.Fatalf("by position = %+v", byPos)
	}
}

func TestGetTransmissionsPagination(t *testing.T) {
	storage := testStorage(t)

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := storage.StoreTransmission(&TransmissionRecord{
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			Message:   "test",
			Position:  "Center",
			Phase:     "Cruise",
			Frequency: "132.500",
		})
		if err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	page, err := storage.GetTransmissions(2, 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page size = %d", len(page))
	}
}
