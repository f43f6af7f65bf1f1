package service

import (
	"context"
	"errors"

	"geo-dispatch/internal/general/contracts"
	"geo-dispatch/internal/ports"
)

// MultiNotifier fans dispatch events out to several notifiers.
type MultiNotifier struct {
	Notifiers []ports.DispatchNotifier
}

// NewMultiNotifier creates a MultiNotifier; nil entries are skipped.
func NewMultiNotifier(notifiers ...ports.DispatchNotifier) *MultiNotifier {
	out := make([]ports.DispatchNotifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			out = append(out, n)
		}
	}
	return &MultiNotifier{Notifiers: out}
}

// NotifyDispatch forwards msg to every notifier, even after a failure, and joins the errors.
func (m *MultiNotifier) NotifyDispatch(ctx context.Context, msg contracts.DispatchEventMessage) error {
	var errs []error
	for _, n := range m.Notifiers {
		if err := n.NotifyDispatch(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
