package graph

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

var schemaQueries = []Query{
	NewQuery("schema.topic_slug_unique",
		`CREATE CONSTRAINT topic_slug_unique IF NOT EXISTS FOR (t:{{Topic}}) REQUIRE t.slug IS UNIQUE`,
		map[string]string{"Topic": string(LabelTopic)}),
	NewQuery("schema.hashtag_slug_unique",
		`CREATE CONSTRAINT hashtag_slug_unique IF NOT EXISTS FOR (h:{{Hashtag}}) REQUIRE h.slug IS UNIQUE`,
		map[string]string{"Hashtag": string(LabelHashtag)}),
	NewQuery("schema.user_id_unique",
		`CREATE CONSTRAINT user_id_unique IF NOT EXISTS FOR (u:{{User}}) REQUIRE u.id IS UNIQUE`,
		map[string]string{"User": string(LabelUser)}),
	NewQuery("schema.post_id_unique",
		`CREATE CONSTRAINT post_id_unique IF NOT EXISTS FOR (p:{{Post}}) REQUIRE p.id IS UNIQUE`,
		map[string]string{"Post": string(LabelPost)}),
	NewQuery("schema.post_created_at_index",
		`CREATE INDEX post_created_at_index IF NOT EXISTS FOR (p:{{Post}}) ON (p.createdAt)`,
		map[string]string{"Post": string(LabelPost)}),
}

// EnsureSchema creates the uniqueness constraints and indexes the engine
// relies on. Slug uniqueness is what turns concurrent duplicate upserts into
// Conflict errors.
func EnsureSchema(ctx context.Context, runner Runner, logger *zap.Logger) error {
	for _, q := range schemaQueries {
		if _, err := runner.Write(ctx, q, nil); err != nil {
			return fmt.Errorf("failed to apply %s: %w", q.Name, err)
		}
	}
	logger.Info("Graph schema ensured", zap.Int("statements", len(schemaQueries)))
	return nil
}
