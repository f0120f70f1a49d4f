package combat

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func threatAt(inserted, duration time.Duration) QueuedThreat {
	return QueuedThreat{
		ID:         uuid.New(),
		Source:     uuid.New(),
		Ability:    "strike",
		Damage:     10,
		InsertedAt: inserted,
		Duration:   duration,
	}
}

func TestQueueFIFOOrder(t *testing.T) {
	q := NewReactionQueue(2)
	first := threatAt(0, time.Second)
	second := threatAt(10*time.Millisecond, time.Second)
	q.Insert(first)
	q.Insert(second)

	got, err := q.PopFront()
	if err != nil {
		t.Fatalf("pop failed: %v", err)
	}
	if got.ID != first.ID {
		t.Fatal("pop returned wrong entry, want oldest")
	}
}

func TestQueuePopEmpty(t *testing.T) {
	q := NewReactionQueue(1)
	if _, err := q.PopFront(); !errors.Is(err, ErrEmptyQueue) {
		t.Fatalf("pop error = %v, want ErrEmptyQueue", err)
	}
}

func TestQueuePopExpiredFrontFirst(t *testing.T) {
	q := NewReactionQueue(2)
	// The second entry has a shorter timer but cannot resolve before the first.
	q.Insert(threatAt(0, 3*time.Second))
	q.Insert(threatAt(time.Second, time.Second))

	if got := q.PopExpired(2500 * time.Millisecond); got != nil {
		t.Fatalf("expired %d entries before the front matured", len(got))
	}
	got := q.PopExpired(3 * time.Second)
	if len(got) != 2 {
		t.Fatalf("expired %d entries, want 2", len(got))
	}
	if q.Len() != 0 {
		t.Fatalf("queue len = %d, want 0", q.Len())
	}
}

func TestQueueVisibleWindow(t *testing.T) {
	q := NewReactionQueue(2)
	for i := 0; i < 5; i++ {
		q.Insert(threatAt(time.Duration(i)*time.Millisecond, time.Second))
	}
	if got := len(q.Visible()); got != 2 {
		t.Fatalf("visible = %d, want 2", got)
	}
	if q.Len() != 5 {
		t.Fatalf("len = %d, want 5 (window must not drop entries)", q.Len())
	}
}

func TestQueueClearVisibleLeavesHidden(t *testing.T) {
	q := NewReactionQueue(3)
	for i := 0; i < 5; i++ {
		q.Insert(threatAt(time.Duration(i)*time.Millisecond, time.Second))
	}
	cleared := q.ClearVisible()
	if len(cleared) != 3 {
		t.Fatalf("cleared = %d, want 3", len(cleared))
	}
	if q.Len() != 2 {
		t.Fatalf("remaining = %d, want 2", q.Len())
	}
}

func TestQueueClearAllIncludesHidden(t *testing.T) {
	q := NewReactionQueue(1)
	for i := 0; i < 4; i++ {
		q.Insert(threatAt(time.Duration(i)*time.Millisecond, time.Second))
	}
	cleared := q.ClearAll()
	if len(cleared) != 4 {
		t.Fatalf("cleared = %d, want 4", len(cleared))
	}
	if q.Len() != 0 {
		t.Fatalf("remaining = %d, want 0", q.Len())
	}
}

func TestQueueWindowResizeKeepsEntries(t *testing.T) {
	q := NewReactionQueue(1)
	for i := 0; i < 3; i++ {
		q.Insert(threatAt(time.Duration(i)*time.Millisecond, time.Second))
	}
	q.SetWindow(3)
	if got := len(q.Visible()); got != 3 {
		t.Fatalf("visible after resize = %d, want 3", got)
	}
	q.SetWindow(0)
	if q.Window() != 1 {
		t.Fatalf("window = %d, want floor of 1", q.Window())
	}
}
