package paystream_test

import (
	"context"
	"log"
	"log/slog"
	"testing"

	"github.com/xraph/paystream"
	"github.com/xraph/paystream/auth"
	"github.com/xraph/paystream/clock"
	"github.com/xraph/paystream/store/memory"
	"github.com/xraph/paystream/stream"
	"github.com/xraph/paystream/token"
	"github.com/xraph/paystream/types"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation run.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Tokens and time are injected so the example is deterministic.
		tokens := token.NewLedger()
		if err := tokens.Mint("USDC", "alice", 10_000); err != nil {
			t.Fatal(err)
		}
		clk := clock.NewManual(1_700_000_000)

		engine := paystream.New(store,
			paystream.WithLogger(slog.Default()),
			paystream.WithToken(tokens),
			paystream.WithClock(clk),
		)

		ctx := context.Background()
		if err := engine.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer engine.Stop()

		if _, err := engine.Initialize(auth.WithCaller(ctx, "admin"), "admin", "treasury", 25); err != nil {
			t.Fatal(err)
		}

		// Alice streams 3600 USDC to Bob over one hour.
		start := clk.Now()
		sid, err := engine.CreateStream(auth.WithCaller(ctx, "alice"), stream.CreateParams{
			Sender:        "alice",
			Recipient:     "bob",
			Token:         "USDC",
			TotalAmount:   3600,
			InitialAmount: 3600,
			StartTime:     start,
			EndTime:       start + 3600,
		})
		if err != nil {
			t.Fatal(err)
		}

		clk.Advance(900)
		available, err := engine.WithdrawableAmount(ctx, sid)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("Withdrawable after 15 minutes: %d\n", available)

		gross, err := engine.WithdrawMax(auth.WithCaller(ctx, "bob"), sid)
		if err != nil {
			t.Fatal(err)
		}
		if gross != 900 {
			t.Fatalf("withdrew %d, want 900", gross)
		}
		log.Printf("Bob received %s USDC\n", types.FormatUnits(tokens.Balance("USDC", "bob"), 0))

		if err := engine.CancelStream(auth.WithCaller(ctx, "alice"), sid); err != nil {
			t.Fatal(err)
		}
		if got := tokens.Balance("USDC", "alice"); got != 10_000-900 {
			t.Fatalf("alice holds %d after refund", got)
		}
	})

	t.Run("ErrorHandlingExample", func(t *testing.T) {
		engine := paystream.New(memory.New())

		_, err := engine.GetStream(context.Background(), 7)
		if !paystream.IsNotFound(err) {
			t.Fatalf("expected not found, got %v", err)
		}

		_, err = engine.Initialize(context.Background(), "admin", "treasury", 0)
		if !paystream.IsAuthError(err) {
			t.Fatalf("expected auth error, got %v", err)
		}
	})
}
