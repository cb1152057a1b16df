// Package service coordinates the style-aggregation engine: it wraps the
// pure fold (Bootstrap/Merge) in a per-connection atomic read-merge-write
// with bounded retry, and serves profile reads with read-time fallback
// synthesis.
package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"stylemail/internal/model"
	"stylemail/internal/repository"
	"stylemail/internal/stats"
	"stylemail/pkg/metrics"
)

// FeatureExtractor turns a raw email body into a validated feature vector.
// Implemented by extractor.Client; faked in tests.
type FeatureExtractor interface {
	Extract(ctx context.Context, body string) (*model.FeatureVector, error)
}

// ProfileStore is the persistence primitive the coordinator needs: a point
// lookup and a lock-then-upsert read-modify-write unit.
type ProfileStore interface {
	FindByConnection(ctx context.Context, connectionID string) (*model.StyleProfile, error)
	UpdateWithLock(ctx context.Context, connectionID string, apply func(existing *model.StyleProfile) (*model.StyleProfile, error)) error
}

type ProfileService struct {
	store     ProfileStore
	extractor FeatureExtractor
	logger    *zap.Logger
}

func NewProfileService(store ProfileStore, extractor FeatureExtractor, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		store:     store,
		extractor: extractor,
		logger:    logger,
	}
}

// UpdateProfile folds one outgoing email into the connection's persisted
// style profile and returns the committed result. The first successful email
// for a connection bootstraps the profile; every later one merges into it.
// The fold is atomic: either num_messages and every metric state advance
// together, or nothing changes. On a transient write conflict the whole
// read-merge-write unit is retried exactly once; a second failure drops this
// email's contribution and surfaces a ConflictError.
func (s *ProfileService) UpdateProfile(ctx context.Context, connectionID, emailBody string) (*model.StyleProfile, error) {
	vec, err := s.extractor.Extract(ctx, emailBody)
	if err != nil {
		metrics.IncrementProfileFold("extraction_failed")
		return nil, err
	}

	var committed *model.StyleProfile
	fold := func(ctx context.Context) error {
		return s.store.UpdateWithLock(ctx, connectionID, func(existing *model.StyleProfile) (*model.StyleProfile, error) {
			var next *model.StyleProfile
			if existing == nil {
				next = &model.StyleProfile{
					ConnectionID: connectionID,
					NumMessages:  1,
					Style:        stats.Bootstrap(vec),
				}
			} else {
				next = &model.StyleProfile{
					ConnectionID: connectionID,
					NumMessages:  existing.NumMessages + 1,
					Style:        stats.Merge(existing.Style, vec),
				}
			}
			committed = next
			return next, nil
		})
	}

	if err := s.foldWithRetry(ctx, connectionID, fold); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			metrics.IncrementProfileFold("conflict")
		} else {
			metrics.IncrementProfileFold("error")
		}
		return nil, err
	}

	metrics.IncrementProfileFold("success")
	s.logger.Info("Folded email into style profile",
		zap.String("connection_id", connectionID),
		zap.Int64("num_messages", committed.NumMessages),
	)
	return committed, nil
}

// foldWithRetry runs one read-merge-write unit and retries it exactly once
// on a transient conflict. Never more: this bounds worst-case latency and
// avoids contention storms on a hot connection.
func (s *ProfileService) foldWithRetry(ctx context.Context, connectionID string, fold func(context.Context) error) error {
	err := fold(ctx)
	if err == nil || !isRetryableTxError(err) {
		return err
	}

	metrics.IncrementMergeRetry()
	s.logger.Warn("Profile merge conflict, retrying once",
		zap.String("connection_id", connectionID),
		zap.Error(err),
	)

	err = fold(ctx)
	if err == nil {
		return nil
	}
	if isRetryableTxError(err) {
		return &ConflictError{ConnectionID: connectionID, Err: err}
	}
	return err
}

// GetProfile returns the persisted profile for a connection. When none
// exists and a non-blank fallback body is supplied, it synthesizes a
// transient one-shot profile from that body without persisting it, so a
// possibly one-off sample never pollutes the long-run aggregate. With no
// usable fallback it returns ErrNoProfile. A blank fallback never reaches
// the extractor.
func (s *ProfileService) GetProfile(ctx context.Context, connectionID, fallbackBody string) (*model.StyleProfile, error) {
	profile, err := s.store.FindByConnection(ctx, connectionID)
	if err == nil {
		metrics.IncrementProfileRead("persisted")
		return profile, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if strings.TrimSpace(fallbackBody) == "" {
		metrics.IncrementProfileRead("absent")
		return nil, ErrNoProfile
	}

	vec, err := s.extractor.Extract(ctx, fallbackBody)
	if err != nil {
		s.logger.Warn("Fallback extraction failed, reporting no profile",
			zap.String("connection_id", connectionID),
			zap.Error(err),
		)
		metrics.IncrementProfileRead("absent")
		return nil, ErrNoProfile
	}

	metrics.IncrementProfileRead("fallback")
	return &model.StyleProfile{
		ConnectionID: connectionID,
		NumMessages:  1,
		Style:        stats.Bootstrap(vec),
		Transient:    true,
	}, nil
}
