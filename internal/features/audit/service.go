package audit

import (
	"context"

	"issue-tracker/internal/common/errs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var appendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "issuetracker",
	Name:      "audit_append_failures_total",
	Help:      "Edits that could not be appended after the primary mutation succeeded.",
}, []string{"col", "op"})

type AuditService interface {
	Record(ctx context.Context, edit *Edit) error
}

type AuditServiceImpl struct {
	Repo AuditRepository
}

func NewAuditService(repo AuditRepository) AuditService {
	return &AuditServiceImpl{Repo: repo}
}

// Record appends an edit. A storage failure is returned as a Storage error
// and counted; the caller decides whether to surface it.
func (s *AuditServiceImpl) Record(ctx context.Context, edit *Edit) error {
	if edit == nil {
		return errs.Validation("edit is required")
	}
	if edit.Timestamp.IsZero() {
		return errs.Validation("edit timestamp is required")
	}
	if !edit.Op.Valid() {
		return errs.Validation("invalid edit op %q", edit.Op)
	}
	if edit.Col == "" {
		return errs.Validation("edit collection is required")
	}
	if edit.Auth.IsZero() {
		return errs.Validation("edit actor is required")
	}

	if err := s.Repo.Insert(ctx, edit); err != nil {
		appendFailures.WithLabelValues(edit.Col, string(edit.Op)).Inc()
		return errs.Storage(err, "append edit")
	}
	return nil
}
