package audit

import (
	"context"

	"go.uber.org/zap"
)

// Recorder is what mutating services hold. It never fails the caller: a
// lost edit is logged as an inconsistency with enough context to replay it.
type Recorder struct {
	Service AuditService
	Log     *zap.Logger
}

func NewRecorder(service AuditService, log *zap.Logger) *Recorder {
	return &Recorder{Service: service, Log: log}
}

func (r *Recorder) Append(ctx context.Context, edit *Edit) {
	if err := r.Service.Record(ctx, edit); err != nil {
		r.Log.Error("audit append failed after successful mutation",
			zap.Error(err),
			zap.String("col", edit.Col),
			zap.String("op", string(edit.Op)),
			zap.String("bugId", edit.Target.BugID.Hex()),
			zap.String("userId", edit.Target.UserID.Hex()),
			zap.String("actor", edit.Auth.UserID.Hex()),
			zap.Any("update", edit.Update),
		)
	}
}
