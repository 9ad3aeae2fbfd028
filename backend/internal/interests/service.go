// Package interests maintains the weighted interest graph between users and
// topics or hashtags, keeping each target's popularity equal to its number of
// distinct followers.
package interests

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"social-graph/backend/internal/constants"
	"social-graph/backend/internal/graph"
	"social-graph/backend/internal/metrics"
	apperrors "social-graph/backend/pkg/errors"
	"social-graph/backend/pkg/logger"
)

// Service holds no mutable state; it is safe for concurrent use.
type Service struct {
	runner      graph.Runner
	logger      *zap.Logger
	concurrency int
	newID       func() string
}

// NewService creates a mutator service. concurrency bounds how many slugs of
// one batch are written in parallel.
func NewService(runner graph.Runner, logger *zap.Logger, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		runner:      runner,
		logger:      logger,
		concurrency: concurrency,
		newID:       func() string { return uuid.New().String() },
	}
}

// FollowTopics creates or refreshes INTERESTED_IN edges. Popularity grows only
// for edges that did not exist before.
func (s *Service) FollowTopics(ctx context.Context, userID string, slugs []string, interestLevel int) ([]TargetResult, error) {
	return s.follow(ctx, KindTopic, userID, slugs, interestLevel)
}

// UnfollowTopics removes INTERESTED_IN edges, decrementing popularity with a
// floor of zero. Slugs the user never followed are left untouched.
func (s *Service) UnfollowTopics(ctx context.Context, userID string, slugs []string) ([]TargetResult, error) {
	return s.unfollow(ctx, KindTopic, userID, slugs)
}

// FollowHashtags is FollowTopics for FOLLOWS_HASHTAG edges.
func (s *Service) FollowHashtags(ctx context.Context, userID string, slugs []string, interestLevel int) ([]TargetResult, error) {
	return s.follow(ctx, KindHashtag, userID, slugs, interestLevel)
}

// UnfollowHashtags is UnfollowTopics for FOLLOWS_HASHTAG edges.
func (s *Service) UnfollowHashtags(ctx context.Context, userID string, slugs []string) ([]TargetResult, error) {
	return s.unfollow(ctx, KindHashtag, userID, slugs)
}

// NormalizeInterestLevel maps an absent level to the default and clamps the
// rest into the 1..10 range.
func NormalizeInterestLevel(level int) int {
	switch {
	case level == 0:
		return constants.DefaultInterestLevel
	case level < constants.MinInterestLevel:
		return constants.MinInterestLevel
	case level > constants.MaxInterestLevel:
		return constants.MaxInterestLevel
	}
	return level
}

type target struct {
	slug string
	name string
}

func (s *Service) follow(ctx context.Context, kind Kind, userID string, inputs []string, interestLevel int) ([]TargetResult, error) {
	level := NormalizeInterestLevel(interestLevel)
	q := queries[kind.Name].follow

	return s.batch(ctx, kind, "follow", userID, inputs, func(ctx context.Context, t target) TargetResult {
		rows, err := s.runner.Write(ctx, q, map[string]any{
			"userId":        userID,
			"slug":          t.slug,
			"name":          t.name,
			"id":            s.newID(),
			"interestLevel": int64(level),
		})
		if err != nil {
			return TargetResult{Slug: t.slug, Err: err}
		}
		if len(rows) == 0 {
			return TargetResult{Slug: t.slug, Err: apperrors.NewNotFound("user", userID)}
		}
		row := rows[0]
		return TargetResult{
			Slug:          t.slug,
			Changed:       row.Bool("created"),
			Popularity:    row.Int64("popularity"),
			InterestLevel: int(row.Int64("interestLevel")),
		}
	})
}

func (s *Service) unfollow(ctx context.Context, kind Kind, userID string, inputs []string) ([]TargetResult, error) {
	q := queries[kind.Name].unfollow

	return s.batch(ctx, kind, "unfollow", userID, inputs, func(ctx context.Context, t target) TargetResult {
		rows, err := s.runner.Write(ctx, q, map[string]any{
			"userId": userID,
			"slug":   t.slug,
		})
		if err != nil {
			return TargetResult{Slug: t.slug, Err: err}
		}
		if len(rows) == 0 {
			return TargetResult{Slug: t.slug}
		}
		return TargetResult{
			Slug:       t.slug,
			Changed:    true,
			Popularity: rows[0].Int64("popularity"),
		}
	})
}

// batch runs one transaction per distinct slug. A failing slug is reported on
// its own result and never stops the others; the returned error joins every
// per-slug failure.
func (s *Service) batch(ctx context.Context, kind Kind, op, userID string, inputs []string, apply func(context.Context, target) TargetResult) ([]TargetResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.NewValidationFailed("user_id", "must not be empty")
	}

	results := make([]TargetResult, 0, len(inputs))
	var pending []int
	var targets []target
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		slug := Slugify(in)
		if slug == "" {
			results = append(results, TargetResult{
				Slug: in,
				Err:  apperrors.NewValidationFailed("slug", "'"+in+"' has no usable characters"),
			})
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		pending = append(pending, len(results))
		targets = append(targets, target{slug: slug, name: DisplayName(in)})
		results = append(results, TargetResult{Slug: slug})
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, t := range targets {
		idx := pending[i]
		g.Go(func() error {
			results[idx] = apply(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	log := logger.ForUser(s.logger, userID).With(zap.String("kind", kind.Name), zap.String("op", op))
	var errs []error
	for _, r := range results {
		outcome := "unchanged"
		switch {
		case r.Err != nil:
			outcome = string(apperrors.KindOf(r.Err))
			errs = append(errs, r.Err)
			log.Warn("Interest mutation failed",
				zap.String("slug", r.Slug),
				zap.Error(r.Err),
			)
		case r.Changed:
			outcome = "changed"
		}
		metrics.RecordInterestMutation(kind.Name, op, outcome)
	}

	log.Info("Interest graph updated",
		zap.Int("targets", len(results)),
		zap.Int("failed", len(errs)),
	)

	return results, errors.Join(errs...)
}
