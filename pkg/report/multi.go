package report

import (
	"context"
	"errors"

	"github.com/amirkamran/InvitationModel/pkg/invitation"
)

// Multi forwards every call to each sink in order and joins their errors.
type Multi []invitation.Sink

func (m Multi) OutDomain(ctx context.Context, od invitation.OutDomain) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.OutDomain(ctx, od))
	}
	return errors.Join(errs...)
}

func (m Multi) Iteration(ctx context.Context, it invitation.Iteration) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Iteration(ctx, it))
	}
	return errors.Join(errs...)
}

func (m Multi) Done(ctx context.Context, sum invitation.Summary) error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Done(ctx, sum))
	}
	return errors.Join(errs...)
}
