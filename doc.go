// Package paystream provides a payment streaming engine for Go applications.
//
// A sender funds a stream that vests linearly to a recipient over a time
// window. The engine keeps the accounting exact: integer amounts only,
// withdrawals never exceed what has both vested and been deposited, the
// vesting clock stops while a stream is paused, and nobody moves funds they
// are not entitled to.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/paystream"
//	    "github.com/xraph/paystream/auth"
//	    "github.com/xraph/paystream/store/memory"
//	    "github.com/xraph/paystream/stream"
//	)
//
//	e := paystream.New(memory.New(),
//	    paystream.WithToken(tokens),
//	    paystream.WithClock(clock.System{}),
//	)
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
//	_, err := e.Initialize(auth.WithCaller(ctx, admin), admin, feeCollector, 25)
//
//	id, err := e.CreateStream(auth.WithCaller(ctx, sender), stream.CreateParams{
//	    Sender:        sender,
//	    Recipient:     recipient,
//	    Token:         usdc,
//	    TotalAmount:   1_000_000,
//	    InitialAmount: 250_000,
//	    StartTime:     start,
//	    EndTime:       start + 30*24*3600,
//	})
//
// # Roles
//
// The sender deposits, pauses, resumes and cancels. The recipient withdraws
// and manages an optional delegate who may withdraw on their behalf. The
// admin initializes the protocol config once. Who signed an invocation is
// decided by the configured auth.Provider.
//
// # Vesting
//
// vested = floor(total × min(activeElapsed, duration) / duration), where
// activeElapsed counts only time spent Active. Withdrawable is
// min(vested, balance) − withdrawn.
//
// # Cancellation
//
// Cancel returns everything still in escrow to the sender, including vested
// funds the recipient has not withdrawn yet.
//
// # Storage
//
// Stores are provided for PostgreSQL, SQLite and MongoDB (via Grove) and for
// process memory.
package paystream
