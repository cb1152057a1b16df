package mqhandler

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"stylemail/internal/extractor"
	"stylemail/internal/model"
	"stylemail/internal/mq"
	"stylemail/internal/service"
	"stylemail/internal/util"
	"stylemail/pkg/logger"
	"stylemail/pkg/trace"
)

// ProfileUpdater is the slice of the profile service this handler needs.
type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, connectionID, emailBody string) (*model.StyleProfile, error)
}

// Deduper claims and releases processing of one email event.
type Deduper interface {
	AcquireOnce(ctx context.Context, handler string, emailID int64) bool
	Release(ctx context.Context, handler string, emailID int64)
}

// Publisher publishes follow-up events. May be nil.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

const dedupScope = "style"

// EmailSentHandler folds every outgoing email into its connection's style
// profile. Best effort: a failed fold is logged and dropped, never allowed
// to wedge the queue or the email flow that triggered it.
type EmailSentHandler struct {
	svc      ProfileUpdater
	deduper  Deduper
	producer Publisher
	logger   *zap.Logger
}

func NewEmailSentHandler(svc ProfileUpdater, deduper Deduper, producer Publisher, log *zap.Logger) *EmailSentHandler {
	return &EmailSentHandler{
		svc:      svc,
		deduper:  deduper,
		producer: producer,
		logger:   log,
	}
}

// HandleEmailSent processes one email.sent event. Returns an error only for
// infrastructure failures worth a redelivery; domain failures (bad payload,
// terminal extraction failure, exhausted conflict retry) are swallowed after
// logging so the message is acked and the queue keeps moving.
func (h *EmailSentHandler) HandleEmailSent(ctx context.Context, raw json.RawMessage) error {
	var p mq.EmailSentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Invalid EmailSentPayload, dropping",
			zap.String("raw", string(raw)),
			zap.Error(err),
		)
		return nil
	}

	if p.TraceID != "" {
		ctx = trace.WithContext(ctx, p.TraceID)
	}
	traceLogger := logger.WithTrace(ctx, h.logger)

	if !h.deduper.AcquireOnce(ctx, dedupScope, p.EmailID) {
		return nil
	}

	profile, err := h.svc.UpdateProfile(ctx, p.ConnectionID, p.Body)
	if err != nil {
		h.deduper.Release(ctx, dedupScope, p.EmailID)

		requeue, errorType := classify(err)
		if requeue {
			traceLogger.Warn("Profile fold hit transient infrastructure error, requeueing",
				zap.String("connection_id", p.ConnectionID),
				zap.Int64("email_id", p.EmailID),
				zap.String("error_type", errorType),
				zap.Error(err),
			)
			return err
		}

		traceLogger.Warn("Profile fold failed, dropping email contribution",
			zap.String("connection_id", p.ConnectionID),
			zap.Int64("email_id", p.EmailID),
			zap.String("error_type", errorType),
			zap.Error(err),
		)
		return nil
	}

	traceLogger.Info("Style profile updated",
		zap.String("connection_id", p.ConnectionID),
		zap.Int64("email_id", p.EmailID),
		zap.Int64("num_messages", profile.NumMessages),
	)

	if h.producer != nil {
		payload := mq.ProfileUpdatedPayload{
			ConnectionID: p.ConnectionID,
			NumMessages:  profile.NumMessages,
			TraceID:      trace.FromContext(ctx),
		}
		if err := h.producer.Publish(mq.RoutingKeyProfileUpdated, payload); err != nil {
			traceLogger.Warn("Failed to publish profile.updated",
				zap.String("connection_id", p.ConnectionID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// classify splits fold failures into requeueable infrastructure trouble and
// terminal domain failures. Typed domain errors are checked first; the
// generic classifier only sees what's left.
func classify(err error) (requeue bool, errorType string) {
	var conflict *service.ConflictError
	var extractErr *extractor.ExtractionError
	switch {
	case errors.Is(err, extractor.ErrEmptyBody):
		return false, "empty_body"
	case errors.As(err, &extractErr):
		return false, "extraction_failed"
	case errors.As(err, &conflict):
		return false, "merge_conflict"
	}
	return util.IsRequeueableError(err)
}
