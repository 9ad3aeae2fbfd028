package interests

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"social-graph/backend/internal/graph"
	"social-graph/backend/internal/pagination"
)

var (
	itCreateUser = graph.NewQuery("it.create_user", `MERGE (:{{User}} {id: $id})`,
		map[string]string{"User": string(graph.LabelUser)})
	itCleanup = graph.NewQuery("it.cleanup", `
		MATCH (n) WHERE (n:{{User}} AND n.id STARTS WITH $prefix)
		   OR ((n:{{Topic}} OR n:{{Hashtag}}) AND n.slug STARTS WITH $prefix)
		DETACH DELETE n`,
		map[string]string{"User": string(graph.LabelUser), "Topic": string(graph.LabelTopic), "Hashtag": string(graph.LabelHashtag)})
)

func openIntegrationService(t *testing.T) (*Service, *graph.Store, string) {
	t.Helper()
	uri := os.Getenv("NEO4J_URI")
	if uri == "" || testing.Short() {
		t.Skip("NEO4J_URI not set; skipping interests integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	store, err := graph.Open(ctx, graph.Config{
		URI:          uri,
		User:         os.Getenv("NEO4J_USER"),
		Password:     os.Getenv("NEO4J_PASSWORD"),
		Database:     os.Getenv("NEO4J_DATABASE"),
		QueryTimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, graph.EnsureSchema(ctx, store, zap.NewNop()))

	prefix := "it" + uuid.NewString()[:8]
	t.Cleanup(func() {
		_, _ = store.Write(context.Background(), itCleanup, map[string]any{"prefix": prefix})
		_ = store.Close(context.Background())
	})
	return NewService(store, zap.NewNop(), 4), store, prefix
}

func TestIntegration_FollowIsIdempotentPerUser(t *testing.T) {
	svc, store, prefix := openIntegrationService(t)
	ctx := context.Background()

	users := make([]string, 8)
	for i := range users {
		users[i] = fmt.Sprintf("%s-u%d", prefix, i)
		_, err := store.Write(ctx, itCreateUser, map[string]any{"id": users[i]})
		require.NoError(t, err)
	}
	slug := prefix + "-tech"
	_, err := svc.UpsertHashtag(ctx, HashtagInput{Name: slug})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				_, err := svc.FollowHashtags(ctx, u, []string{"#" + slug}, 0)
				assert.NoError(t, err)
			}
		}(u)
	}
	wg.Wait()

	tag, err := svc.GetHashtag(ctx, slug)
	require.NoError(t, err)
	assert.Equal(t, int64(len(users)), tag.Popularity)

	results, err := svc.UnfollowHashtags(ctx, users[0], []string{slug})
	require.NoError(t, err)
	assert.True(t, results[0].Changed)
	results, err = svc.UnfollowHashtags(ctx, users[0], []string{slug})
	require.NoError(t, err)
	assert.False(t, results[0].Changed)

	tag, err = svc.GetHashtag(ctx, slug)
	require.NoError(t, err)
	assert.Equal(t, int64(len(users)-1), tag.Popularity)

	page, err := svc.ListUserHashtags(ctx, users[1], pagination.Default())
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(5), page.Data[0].InterestLevel)
	assert.NotEmpty(t, page.Data[0].Since)
}

func TestIntegration_UpsertAndListTopics(t *testing.T) {
	svc, store, prefix := openIntegrationService(t)
	ctx := context.Background()

	user := prefix + "-reader"
	_, err := store.Write(ctx, itCreateUser, map[string]any{"id": user})
	require.NoError(t, err)

	_, err = svc.UpsertTopic(ctx, TopicInput{Name: prefix + " Go", Description: strPtr("Gophers")})
	require.NoError(t, err)
	_, err = svc.FollowTopics(ctx, user, []string{prefix + " Go"}, 9)
	require.NoError(t, err)

	topic, err := svc.UpsertTopic(ctx, TopicInput{Name: prefix + " Go"})
	require.NoError(t, err)
	assert.Equal(t, "Gophers", topic.Description)
	assert.Equal(t, int64(1), topic.Popularity)

	page, err := svc.ListTopics(ctx, pagination.Normalize(map[string]any{"search": prefix}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Pagination.Total)

	_, err = svc.FollowTopics(ctx, prefix+"-nobody", []string{prefix + " Go"}, 9)
	assert.Error(t, err)
}
