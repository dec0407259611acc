package paystream

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/paystream/id"
	"github.com/xraph/paystream/protocol"
	"github.com/xraph/paystream/settlement"
	"github.com/xraph/paystream/stream"
)

// journal applies the side effects of one invocation and records how to
// undo each of them. If any later step fails, rollback reverts everything
// in reverse order so the invocation leaves no trace.
type journal struct {
	e    *Engine
	op   string
	undo []func(ctx context.Context) error
}

func (e *Engine) newJournal(op string) *journal {
	return &journal{e: e, op: op}
}

func (j *journal) transfer(ctx context.Context, t settlement.Transfer) error {
	xfer := id.NewTransferID()
	if err := j.e.token.Transfer(ctx, t.Token, t.From, t.To, t.Amount); err != nil {
		return fmt.Errorf("%w: %s of %d: %w", ErrTransferFailed, t.Kind, t.Amount, err)
	}
	j.e.logger.Debug("transfer executed",
		"transfer_id", xfer,
		"op", j.op,
		"kind", t.Kind,
		"from", t.From,
		"to", t.To,
		"amount", t.Amount,
	)
	rev := t.Reverse()
	j.undo = append(j.undo, func(ctx context.Context) error {
		if err := j.e.token.Transfer(ctx, rev.Token, rev.From, rev.To, rev.Amount); err != nil {
			return fmt.Errorf("reverse %s: %w", xfer, err)
		}
		return nil
	})
	return nil
}

func (j *journal) transferAll(ctx context.Context, ts []settlement.Transfer) error {
	for _, t := range ts {
		if err := j.transfer(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (j *journal) createStream(ctx context.Context, s *stream.Stream) error {
	if err := j.e.store.CreateStream(ctx, s); err != nil {
		return err
	}
	j.undo = append(j.undo, func(ctx context.Context) error {
		return j.e.store.DeleteStream(ctx, s.ID)
	})
	return nil
}

func (j *journal) updateStream(ctx context.Context, prev, next *stream.Stream) error {
	if err := j.e.store.UpdateStream(ctx, next); err != nil {
		return err
	}
	j.undo = append(j.undo, func(ctx context.Context) error {
		return j.e.store.UpdateStream(ctx, prev)
	})
	return nil
}

func (j *journal) updateConfig(ctx context.Context, prev, next *protocol.Config) error {
	if err := j.e.store.UpdateConfig(ctx, next); err != nil {
		return err
	}
	j.undo = append(j.undo, func(ctx context.Context) error {
		return j.e.store.UpdateConfig(ctx, prev)
	})
	return nil
}

// abort rolls back every recorded step and returns cause.
func (j *journal) abort(ctx context.Context, cause error) error {
	ctx = context.WithoutCancel(ctx)

	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if err := j.undo[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		j.e.logger.Warn("rollback incomplete",
			"op", j.op,
			"cause", cause,
			"error", errors.Join(errs...),
		)
	} else if len(j.undo) > 0 {
		j.e.logger.Debug("rolled back",
			"op", j.op,
			"steps", len(j.undo),
			"cause", cause,
		)
	}
	j.undo = nil
	return cause
}
