package driver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

type countingManager struct {
	ticks int
	err   error
}

func (m *countingManager) Tick(context.Context) error {
	m.ticks++
	return m.err
}

func TestTickRunsManagersInOrder(t *testing.T) {
	var order []string
	first := managerFunc(func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	second := managerFunc(func(context.Context) error {
		order = append(order, "second")
		return nil
	})

	d := NewDungeonDriver([]Manager{first, second})
	if err := d.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "tick count", len(order), 2)
	testutil.AssertEqual(t, "first manager", order[0], "first")
	testutil.AssertEqual(t, "second manager", order[1], "second")
}

func TestTickStopsOnError(t *testing.T) {
	failing := &countingManager{err: fmt.Errorf("boom")}
	next := &countingManager{}

	d := NewDungeonDriver([]Manager{failing, next})
	err := d.Tick(context.Background())

	testutil.AssertErrorContains(t, err, "boom")
	testutil.AssertEqual(t, "skipped manager ticks", next.ticks, 0)
}

func TestStartTicksUntilCancelled(t *testing.T) {
	m := &countingManager{}
	d := NewDungeonDriver([]Manager{m}, WithTickLength(5*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ticks == 0 {
		t.Error("expected at least one tick before cancellation")
	}
}

type managerFunc func(context.Context) error

func (f managerFunc) Tick(ctx context.Context) error { return f(ctx) }
