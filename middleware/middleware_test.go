package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/middleware"
	"github.com/fluxdesk/fluxdesk/workflow"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRun() *workflow.Run {
	return &workflow.Run{
		Entity:  fluxdesk.NewEntity(),
		ID:      id.NewRunID(),
		Handler: "h",
		Attempt: 1,
		State:   workflow.RunStateRunning,
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next middleware.Handler) middleware.Handler {
			return func(ctx context.Context, run *workflow.Run) error {
				order = append(order, name+":before")
				err := next(ctx, run)
				order = append(order, name+":after")
				return err
			}
		}
	}

	chain := middleware.Chain(tag("outer"), tag("inner"))
	handler := chain(func(ctx context.Context, run *workflow.Run) error {
		order = append(order, "handler")
		return nil
	})

	if err := handler(context.Background(), testRun()); err != nil {
		t.Fatalf("handler: %v", err)
	}

	want := []string{"outer:before", "inner:before", "handler", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestRecoverTurnsPanicIntoError(t *testing.T) {
	handler := middleware.Recover(testLogger())(func(ctx context.Context, run *workflow.Run) error {
		panic("nil map write")
	})

	err := handler(context.Background(), testRun())
	if err == nil {
		t.Fatal("panic swallowed, want error")
	}
	if workflow.IsTerminal(err) {
		t.Errorf("panic classified terminal; a panic is retriable like any other attempt failure")
	}
}

func TestTimeoutBoundsAttempt(t *testing.T) {
	handler := middleware.Timeout(10 * time.Millisecond)(func(ctx context.Context, run *workflow.Run) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	err := handler(context.Background(), testRun())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestTimeoutDisabledWhenNonPositive(t *testing.T) {
	handler := middleware.Timeout(0)(func(ctx context.Context, run *workflow.Run) error {
		if _, ok := ctx.Deadline(); ok {
			t.Error("deadline set despite zero timeout")
		}
		return nil
	})
	if err := handler(context.Background(), testRun()); err != nil {
		t.Fatalf("handler: %v", err)
	}
}

func TestLoggingPassesThroughError(t *testing.T) {
	boom := errors.New("boom")
	handler := middleware.Logging(testLogger())(func(ctx context.Context, run *workflow.Run) error {
		return boom
	})
	if err := handler(context.Background(), testRun()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
