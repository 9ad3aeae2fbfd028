// Package feed ranks posts for a user. The following feed scores posts by the
// strongest facet linking them to the user; when it is empty the composer
// falls back to a personalized feed weighted by interest level.
package feed

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"social-graph/backend/internal/constants"
	"social-graph/backend/internal/graph"
	"social-graph/backend/internal/metrics"
	"social-graph/backend/internal/pagination"
	apperrors "social-graph/backend/pkg/errors"
	"social-graph/backend/pkg/logger"
)

// Composer is stateless and safe for concurrent use.
type Composer struct {
	runner graph.Runner
	logger *zap.Logger
}

func NewComposer(runner graph.Runner, logger *zap.Logger) *Composer {
	return &Composer{runner: runner, logger: logger}
}

// GetFeed serves the following feed, or the personalized feed for the same
// page when the following feed has nothing to show.
func (c *Composer) GetFeed(ctx context.Context, userID string, opts pagination.Options) (*Feed, error) {
	start := time.Now()

	following, err := c.FollowingFeed(ctx, userID, opts)
	if err != nil {
		return nil, err
	}
	if !shouldFallback(following) {
		metrics.RecordFeed(following.Strategy, false, time.Since(start))
		return following, nil
	}

	logger.ForUser(c.logger, userID).Debug("Following feed empty, falling back",
		zap.Int("page", opts.Page))

	personalized, err := c.PersonalizedFeed(ctx, userID, opts)
	if err != nil {
		return nil, err
	}
	metrics.RecordFeed(personalized.Strategy, true, time.Since(start))
	return personalized, nil
}

// shouldFallback is the single place deciding when the personalized feed
// replaces the following feed.
func shouldFallback(f *Feed) bool {
	return len(f.Data) == 0
}

// FollowingFeed ranks posts from followed users, interested topics and
// followed hashtags. A post reachable through several facets appears once
// with the highest tier.
func (c *Composer) FollowingFeed(ctx context.Context, userID string, opts pagination.Options) (*Feed, error) {
	params, err := userParams(userID)
	if err != nil {
		return nil, err
	}
	params["tierFollowedUser"] = int64(constants.TierFollowedUser)
	params["tierInterestedTopic"] = int64(constants.TierInterestedTopic)
	params["tierFollowedHashtag"] = int64(constants.TierFollowedHashtag)

	page, err := c.runner.ReadPage(ctx, followingQuery, followingCountQuery, params, opts)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(page.Rows))
	for _, row := range page.Rows {
		item := itemFromRow(row)
		item.Score = float64(TierScore(row.Int64s("tiers")))
		items = append(items, item)
	}
	rank(items)

	return &Feed{Data: items, Pagination: page.Pagination, Strategy: constants.StrategyFollowing}, nil
}

// PersonalizedFeed ranks posts in the user's topics and hashtags by
// 0.7 * topic interest level + 0.3 * hashtag membership.
func (c *Composer) PersonalizedFeed(ctx context.Context, userID string, opts pagination.Options) (*Feed, error) {
	params, err := userParams(userID)
	if err != nil {
		return nil, err
	}
	params["topicWeight"] = constants.TopicInterestWeight
	params["hashtagWeight"] = constants.HashtagMembershipWeight

	page, err := c.runner.ReadPage(ctx, personalizedQuery, personalizedCountQuery, params, opts)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(page.Rows))
	for _, row := range page.Rows {
		item := itemFromRow(row)
		item.Score = RelevanceScore(row.Float64("topicInterest"), row.Int64("hashtagMember") > 0)
		items = append(items, item)
	}
	rank(items)

	return &Feed{Data: items, Pagination: page.Pagination, Strategy: constants.StrategyPersonalized}, nil
}

// TierScore returns the highest known tier among the facets a post matched.
func TierScore(tiers []int64) int {
	best := 0
	for _, t := range tiers {
		switch t {
		case constants.TierFollowedUser, constants.TierInterestedTopic, constants.TierFollowedHashtag:
			if int(t) > best {
				best = int(t)
			}
		}
	}
	return best
}

// RelevanceScore weights the strongest topic interest against hashtag membership.
func RelevanceScore(topicInterest float64, hashtagMember bool) float64 {
	member := 0.0
	if hashtagMember {
		member = 1
	}
	return constants.TopicInterestWeight*topicInterest + constants.HashtagMembershipWeight*member
}

func userParams(userID string) (map[string]any, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewValidationFailed("userId", "must not be empty")
	}
	return map[string]any{"userId": userID}, nil
}

// rank orders a page by score, newest first within equal scores. The store
// already returns this order; ranking again keeps the page consistent with
// the scores computed here.
func rank(items []Item) {
	created := make(map[string]time.Time, len(items))
	for _, it := range items {
		created[it.PostID] = parseCreatedAt(it.CreatedAt)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return created[items[i].PostID].After(created[items[j].PostID])
	})
}

func parseCreatedAt(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05.999999999", s); err == nil {
		return t
	}
	return time.Time{}
}
