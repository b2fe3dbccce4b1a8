package recorder

import (
	"context"
	"errors"

	"github.com/roach88/heaplab/internal/ir"
)

// Multi forwards to every sink in order. Errors are joined; one failing
// sink does not stop delivery to the others.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, t ir.Transition) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Complete(ctx context.Context, c ir.Completion) error {
	var errs []error
	for _, r := range m {
		if cr, ok := r.(Completer); ok {
			if err := cr.Complete(ctx, c); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m Multi) StartRun(ctx context.Context, run ir.Run) error {
	var errs []error
	for _, r := range m {
		if err := StartRun(ctx, r, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
