package policy

import (
	"context"

	"legalaid-admin/internal/domain"
	"legalaid-admin/pkg/logger"
)

// QueryAPI is the slice of the platform client the coupling needs.
type QueryAPI interface {
	UpdateQueryStatus(ctx context.Context, id string, status domain.QueryStatus) (domain.Query, error)
	GetQuery(ctx context.Context, id string) (domain.Query, error)
}

// StatusCoupling keeps a query's lifecycle status consistent with chat
// activity. Transitions are monotonic; closed is terminal. When the update
// request fails, the authoritative status is re-fetched so the caller never
// keeps a stale optimistic value.
type StatusCoupling struct {
	api QueryAPI
	log *logger.Logger
}

func NewStatusCoupling(api QueryAPI, log *logger.Logger) *StatusCoupling {
	if log == nil {
		log = logger.NewNop()
	}
	return &StatusCoupling{api: api, log: log}
}

// EscalateOnView implements the view rule: a pending query becomes
// "in progress" the moment its conversation is opened. Any other starting
// status is left alone.
func (p *StatusCoupling) EscalateOnView(ctx context.Context, q domain.Query) (domain.QueryStatus, error) {
	if q.Status != domain.StatusPending {
		return q.Status, nil
	}
	return p.apply(ctx, q, domain.StatusInProgress)
}

// EscalateOnReply implements the first-reply rule: the first admin-authored
// message moves the query to "answered" unless it already is, or is closed.
func (p *StatusCoupling) EscalateOnReply(ctx context.Context, q domain.Query) (domain.QueryStatus, error) {
	if q.Status == domain.StatusAnswered || q.Status == domain.StatusClosed {
		return q.Status, nil
	}
	return p.apply(ctx, q, domain.StatusAnswered)
}

// Close moves the query to its terminal state. No-op when already closed.
func (p *StatusCoupling) Close(ctx context.Context, q domain.Query) (domain.QueryStatus, error) {
	if q.Status == domain.StatusClosed {
		return q.Status, nil
	}
	return p.apply(ctx, q, domain.StatusClosed)
}

func (p *StatusCoupling) apply(ctx context.Context, q domain.Query, target domain.QueryStatus) (domain.QueryStatus, error) {
	if !domain.CanTransition(q.Status, target) {
		return q.Status, nil
	}

	updated, err := p.api.UpdateQueryStatus(ctx, q.ID, target)
	if err == nil {
		return updated.Status, nil
	}

	p.log.Warnf("status update %s -> %s failed for query %s: %v", q.Status, target, q.ID, err)
	fresh, fetchErr := p.api.GetQuery(ctx, q.ID)
	if fetchErr != nil {
		// Reconciliation failed too; report the last known server value.
		return q.Status, err
	}
	return fresh.Status, err
}
