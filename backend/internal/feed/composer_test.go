package feed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"social-graph/backend/internal/constants"
	"social-graph/backend/internal/graph"
	"social-graph/backend/internal/pagination"
	apperrors "social-graph/backend/pkg/errors"
)

func newTestComposer(g *socialGraph) *Composer {
	return NewComposer(g, zap.NewNop())
}

func postIDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.PostID
	}
	return ids
}

func TestTierScore(t *testing.T) {
	assert.Equal(t, 0, TierScore(nil))
	assert.Equal(t, 1, TierScore([]int64{1}))
	assert.Equal(t, 3, TierScore([]int64{1, 3, 2}))
	assert.Equal(t, 2, TierScore([]int64{2, 2}))
	assert.Equal(t, 1, TierScore([]int64{7, 1}))
}

func TestRelevanceScore(t *testing.T) {
	assert.InDelta(t, 5.6, RelevanceScore(8, false), 1e-9)
	assert.InDelta(t, 0.3, RelevanceScore(0, true), 1e-9)
	assert.InDelta(t, 7.3, RelevanceScore(10, true), 1e-9)
	assert.Zero(t, RelevanceScore(0, false))
}

func TestFollowingFeed_RanksByStrongestFacet(t *testing.T) {
	g := newSocialGraph()
	g.follow("me", "alice")
	g.interest("me", "go", 5)
	g.followHashtag("me", "live")

	g.addPost(post{id: "by-alice-old", creator: "alice", createdAt: "2024-01-01T00:00:00Z"})
	g.addPost(post{id: "by-alice-in-go", creator: "alice", topic: "go", hashtags: []string{"live"}, createdAt: "2024-01-02T00:00:00Z"})
	g.addPost(post{id: "go-post", creator: "bob", topic: "go", createdAt: "2024-01-05T00:00:00Z"})
	g.addPost(post{id: "live-post", creator: "carol", hashtags: []string{"live", "music"}, createdAt: "2024-01-09T00:00:00Z"})
	g.addPost(post{id: "unrelated", creator: "dave", topic: "rust", createdAt: "2024-01-10T00:00:00Z"})

	feed, err := newTestComposer(g).FollowingFeed(context.Background(), "me", pagination.Default())
	require.NoError(t, err)

	assert.Equal(t, constants.StrategyFollowing, feed.Strategy)
	assert.Equal(t, []string{"by-alice-in-go", "by-alice-old", "go-post", "live-post"}, postIDs(feed.Data))
	assert.Equal(t, []float64{3, 3, 2, 1}, []float64{feed.Data[0].Score, feed.Data[1].Score, feed.Data[2].Score, feed.Data[3].Score})
	assert.Equal(t, int64(4), feed.Pagination.Total)
}

func TestFollowingFeed_Projection(t *testing.T) {
	g := newSocialGraph()
	g.follow("me", "alice")
	g.addPost(post{id: "p1", creator: "alice", topic: "go", hashtags: []string{"a", "b"}, createdAt: "2024-01-01T00:00:00Z"})
	g.addPost(post{id: "p2", creator: "alice", createdAt: "2024-01-02T00:00:00Z"})

	feed, err := newTestComposer(g).FollowingFeed(context.Background(), "me", pagination.Default())
	require.NoError(t, err)
	require.Len(t, feed.Data, 2)

	bare := feed.Data[0]
	assert.Equal(t, "p2", bare.PostID)
	assert.Nil(t, bare.Topic)
	assert.Empty(t, bare.Hashtags)
	assert.NotNil(t, bare.Hashtags)

	full := feed.Data[1]
	assert.Equal(t, Engagement{Likes: 1, Comments: 2, Shares: 3}, full.Engagement)
	require.NotNil(t, full.Creator)
	assert.Equal(t, Creator{ID: "alice", Username: "@alice"}, *full.Creator)
	require.NotNil(t, full.Topic)
	assert.Equal(t, "go", full.Topic.Slug)
	assert.Equal(t, []HashtagRef{{Slug: "a", Name: "a"}, {Slug: "b", Name: "b"}}, full.Hashtags)
}

func TestFollowingFeed_OrderingHoldsAcrossPages(t *testing.T) {
	g := newSocialGraph()
	g.follow("me", "alice")
	g.interest("me", "go", 3)
	g.followHashtag("me", "live")
	for i, tc := range []struct{ creator, topic, tag string }{
		{"alice", "", ""}, {"bob", "go", ""}, {"bob", "", "live"}, {"alice", "go", "live"},
		{"carol", "go", ""}, {"carol", "", "live"}, {"alice", "", ""}, {"bob", "go", "live"},
	} {
		p := post{id: string(rune('a' + i)), creator: tc.creator, topic: tc.topic, createdAt: "2024-02-0" + string(rune('1'+i)) + "T00:00:00Z"}
		if tc.tag != "" {
			p.hashtags = []string{tc.tag}
		}
		g.addPost(p)
	}

	composer := newTestComposer(g)
	var all []Item
	for page := 1; page <= 3; page++ {
		feed, err := composer.FollowingFeed(context.Background(), "me", pagination.Normalize(map[string]any{"page": page, "limit": 3}))
		require.NoError(t, err)
		assert.Equal(t, int64(8), feed.Pagination.Total)
		all = append(all, feed.Data...)
	}
	require.Len(t, all, 8)

	seen := map[string]bool{}
	for i, it := range all {
		assert.False(t, seen[it.PostID], "post %s returned twice", it.PostID)
		seen[it.PostID] = true
		if i == 0 {
			continue
		}
		prev := all[i-1]
		assert.GreaterOrEqual(t, prev.Score, it.Score)
		if prev.Score == it.Score {
			assert.Greater(t, prev.CreatedAt, it.CreatedAt)
		}
	}
}

func TestRank_ReordersOutOfOrderRows(t *testing.T) {
	g := newSocialGraph()
	g.canned[followingQuery.Name] = []graph.Row{
		{"postId": "low", "createdAt": "2024-03-01T00:00:09Z", "tiers": []any{int64(1)}},
		{"postId": "high-old", "createdAt": "2024-03-01T00:00:01Z", "tiers": []any{int64(3)}},
		{"postId": "high-new", "createdAt": "2024-03-01T00:00:01.5Z", "tiers": []any{int64(2), int64(3)}},
	}

	feed, err := newTestComposer(g).FollowingFeed(context.Background(), "me", pagination.Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"high-new", "high-old", "low"}, postIDs(feed.Data))
}

func TestPersonalizedFeed_WeightsInterestAndMembership(t *testing.T) {
	g := newSocialGraph()
	g.interest("me", "cooking", 8)
	g.interest("me", "gardening", 2)
	g.followHashtag("me", "vegan")

	g.addPost(post{id: "cooking", creator: "x", topic: "cooking", createdAt: "2024-01-01T00:00:00Z"})
	g.addPost(post{id: "garden-vegan", creator: "x", topic: "gardening", hashtags: []string{"vegan"}, createdAt: "2024-01-02T00:00:00Z"})
	g.addPost(post{id: "vegan-only", creator: "x", hashtags: []string{"vegan"}, createdAt: "2024-01-03T00:00:00Z"})
	g.addPost(post{id: "other", creator: "x", topic: "cars", createdAt: "2024-01-04T00:00:00Z"})

	feed, err := newTestComposer(g).PersonalizedFeed(context.Background(), "me", pagination.Default())
	require.NoError(t, err)

	assert.Equal(t, constants.StrategyPersonalized, feed.Strategy)
	require.Equal(t, []string{"cooking", "garden-vegan", "vegan-only"}, postIDs(feed.Data))
	assert.InDelta(t, 5.6, feed.Data[0].Score, 1e-9)
	assert.InDelta(t, 1.7, feed.Data[1].Score, 1e-9)
	assert.InDelta(t, 0.3, feed.Data[2].Score, 1e-9)
}

func TestGetFeed_ServesFollowingWhenNotEmpty(t *testing.T) {
	g := newSocialGraph()
	g.follow("me", "alice")
	g.addPost(post{id: "p1", creator: "alice", createdAt: "2024-01-01T00:00:00Z"})

	feed, err := newTestComposer(g).GetFeed(context.Background(), "me", pagination.Default())
	require.NoError(t, err)
	assert.Equal(t, constants.StrategyFollowing, feed.Strategy)
	assert.Equal(t, []string{followingQuery.Name}, g.calls)
}

func TestGetFeed_FallsBackOnEmptyFollowingPage(t *testing.T) {
	g := newSocialGraph()
	g.canned[followingQuery.Name] = nil
	g.canned[personalizedQuery.Name] = []graph.Row{
		{"postId": "p9", "createdAt": "2024-01-01T00:00:00Z", "topicInterest": int64(8), "hashtagMember": int64(0)},
	}

	feed, err := newTestComposer(g).GetFeed(context.Background(), "me", pagination.Default())
	require.NoError(t, err)
	assert.Equal(t, constants.StrategyPersonalized, feed.Strategy)
	assert.Equal(t, []string{followingQuery.Name, personalizedQuery.Name}, g.calls)
	require.Len(t, feed.Data, 1)
	assert.InDelta(t, 5.6, feed.Data[0].Score, 1e-9)
}

func TestGetFeed_UserWithNoInterestsIsEmpty(t *testing.T) {
	g := newSocialGraph()
	g.addPost(post{id: "p1", creator: "alice", topic: "go", createdAt: "2024-01-01T00:00:00Z"})

	feed, err := newTestComposer(g).GetFeed(context.Background(), "loner", pagination.Default())
	require.NoError(t, err)
	assert.Empty(t, feed.Data)
	assert.NotNil(t, feed.Data)
	assert.Equal(t, int64(0), feed.Pagination.Total)
	assert.Equal(t, constants.StrategyPersonalized, feed.Strategy)
}

func TestGetFeed_Errors(t *testing.T) {
	g := newSocialGraph()
	_, err := newTestComposer(g).GetFeed(context.Background(), "  ", pagination.Default())
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, g.calls)

	g.err = apperrors.NewTransientStore(followingQuery.Name, assert.AnError)
	_, err = newTestComposer(g).GetFeed(context.Background(), "me", pagination.Default())
	assert.True(t, apperrors.IsRetryable(err))
	assert.Len(t, g.calls, 1)
}

func TestShouldFallback(t *testing.T) {
	assert.True(t, shouldFallback(&Feed{}))
	assert.False(t, shouldFallback(&Feed{Data: []Item{{PostID: "x"}}}))
}

func TestFeedQueries_AreResolved(t *testing.T) {
	for _, q := range []graph.Query{followingQuery, followingCountQuery, personalizedQuery, personalizedCountQuery} {
		assert.NotContains(t, q.Cypher, "{{", q.Name)
		assert.True(t, strings.HasPrefix(q.Name, "feed."))
	}
	assert.Contains(t, followingQuery.Cypher, "$tierFollowedUser")
	assert.Contains(t, personalizedQuery.Cypher, "$topicWeight")
	assert.Contains(t, followingCountQuery.Cypher, "AS total")
}
