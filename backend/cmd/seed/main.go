package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"go.uber.org/zap"

	"social-graph/backend/internal/graph"
	"social-graph/backend/internal/interests"
	"social-graph/backend/pkg/config"
	"social-graph/backend/pkg/logger"
)

var labelVars = map[string]string{
	"User":        string(graph.LabelUser),
	"Post":        string(graph.LabelPost),
	"Topic":       string(graph.LabelTopic),
	"Hashtag":     string(graph.LabelHashtag),
	"FOLLOWS":     string(graph.RelFollows),
	"POSTED":      string(graph.RelPosted),
	"BELONGS_TO":  string(graph.RelBelongsTo),
	"HAS_HASHTAG": string(graph.RelHasHashtag),
}

var (
	deleteAllQuery = graph.NewQuery("seed.delete_all", `MATCH (n) DETACH DELETE n`, nil)

	createUserQuery = graph.NewQuery("seed.create_user", `
		MERGE (u:{{User}} {id: $id})
		SET u.username = $username, u.email = $email
	`, labelVars)

	followUserQuery = graph.NewQuery("seed.follow_user", `
		MATCH (a:{{User}} {id: $from}), (b:{{User}} {id: $to})
		MERGE (a)-[:{{FOLLOWS}}]->(b)
	`, labelVars)

	createPostQuery = graph.NewQuery("seed.create_post", `
		MATCH (u:{{User}} {id: $userId})
		MATCH (t:{{Topic}} {slug: $topic})
		MERGE (p:{{Post}} {id: $id})
		SET p.content = $content,
		    p.createdAt = datetime($createdAt),
		    p.likes = $likes, p.comments = $comments, p.shares = $shares
		MERGE (u)-[:{{POSTED}}]->(p)
		MERGE (p)-[:{{BELONGS_TO}}]->(t)
		WITH p
		UNWIND $hashtags AS tag
		MATCH (h:{{Hashtag}} {slug: tag})
		MERGE (p)-[:{{HAS_HASHTAG}}]->(h)
	`, labelVars)
)

var (
	topicNames   = []string{"Go", "Databases", "Street Food", "Jazz", "Hiking", "Machine Learning", "Photography", "Gardening"}
	hashtagNames = []string{"#golang", "#neo4j", "#foodie", "#live", "#outdoors", "#ai", "#film", "#vegan", "#weekend", "#tips"}
)

func main() {
	users := flag.Int("users", 20, "Number of users to create")
	posts := flag.Int("posts", 200, "Number of posts to create")
	seed := flag.Uint64("seed", 1, "Random seed for reproducible fixtures")
	reset := flag.Bool("reset", false, "Delete all data before seeding")
	skipConfirm := flag.Bool("y", false, "Skip confirmation prompt for -reset")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development", os.Getenv("LOG_LEVEL")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting database seeding...")

	if *reset && !*skipConfirm {
		log.Warn("WARNING: -reset will DELETE ALL DATA from Neo4j!")
		fmt.Print("Are you sure you want to continue? (yes/no): ")
		var response string
		fmt.Scanln(&response)
		if response != "yes" && response != "y" {
			log.Info("Aborted.")
			os.Exit(0)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()
	store, err := graph.Open(ctx, graph.Config{
		URI:            cfg.Neo4jURI,
		User:           cfg.Neo4jUser,
		Password:       cfg.Neo4jPassword,
		Database:       cfg.Neo4jDatabase,
		MaxPoolSize:    cfg.Neo4jMaxPoolSize,
		AcquireTimeout: cfg.Neo4jAcquireTimeout,
		QueryTimeout:   cfg.QueryTimeout,
	}, logger.Named("graph"))
	if err != nil {
		log.Fatal("Failed to open graph store", zap.Error(err))
	}

	s := &seeder{
		store:     store,
		interests: interests.NewService(store, logger.Named("interests"), cfg.BatchConcurrency),
		rng:       rand.New(rand.NewPCG(*seed, *seed)),
		log:       log,
	}
	err = s.seedGraph(ctx, *reset, *users, *posts)
	if cerr := store.Close(context.Background()); cerr != nil {
		log.Error("Failed to close graph store", zap.Error(cerr))
	}
	if err != nil {
		log.Error("Seeding failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	log.Info("Database seeding completed successfully!",
		zap.Int("users", *users),
		zap.Int("posts", *posts),
	)
}

// seedGraph optionally wipes the graph, then applies the schema and fixtures.
func (s *seeder) seedGraph(ctx context.Context, reset bool, users, posts int) error {
	if reset {
		s.log.Info("Step 1: Deleting all data...")
		if _, err := s.store.Write(ctx, deleteAllQuery, nil); err != nil {
			return fmt.Errorf("delete all data: %w", err)
		}
	}

	s.log.Info("Step 2: Ensuring constraints and indexes...")
	if err := graph.EnsureSchema(ctx, s.store, s.log); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	return s.run(ctx, users, posts)
}

type seeder struct {
	store     graph.Runner
	interests *interests.Service
	rng       *rand.Rand
	log       *zap.Logger
}

func (s *seeder) run(ctx context.Context, users, posts int) error {
	s.log.Info("Step 3: Creating topics and hashtags...")
	for _, name := range topicNames {
		if _, err := s.interests.UpsertTopic(ctx, interests.TopicInput{Name: name}); err != nil {
			return fmt.Errorf("upsert topic %s: %w", name, err)
		}
	}
	for _, name := range hashtagNames {
		if _, err := s.interests.UpsertHashtag(ctx, interests.HashtagInput{Name: name}); err != nil {
			return fmt.Errorf("upsert hashtag %s: %w", name, err)
		}
	}

	s.log.Info("Step 4: Creating users...")
	ids := make([]string, users)
	for i := range ids {
		ids[i] = fmt.Sprintf("user-%03d", i+1)
		if _, err := s.store.Write(ctx, createUserQuery, map[string]any{
			"id":       ids[i],
			"username": fmt.Sprintf("user%d", i+1),
			"email":    fmt.Sprintf("user%d@example.com", i+1),
		}); err != nil {
			return fmt.Errorf("create user %s: %w", ids[i], err)
		}
	}

	s.log.Info("Step 5: Creating follows and interests...")
	for _, id := range ids {
		for _, other := range s.pick(ids, 3) {
			if other == id {
				continue
			}
			if _, err := s.store.Write(ctx, followUserQuery, map[string]any{"from": id, "to": other}); err != nil {
				return fmt.Errorf("follow %s -> %s: %w", id, other, err)
			}
		}
		if _, err := s.interests.FollowTopics(ctx, id, s.pick(topicNames, 2), 1+s.rng.IntN(10)); err != nil {
			return fmt.Errorf("follow topics for %s: %w", id, err)
		}
		if _, err := s.interests.FollowHashtags(ctx, id, s.pick(hashtagNames, 3), 0); err != nil {
			return fmt.Errorf("follow hashtags for %s: %w", id, err)
		}
	}

	s.log.Info("Step 6: Creating posts...")
	now := time.Now().UTC()
	for i := 0; i < posts && len(ids) > 0; i++ {
		topic := topicNames[s.rng.IntN(len(topicNames))]
		tags := make([]string, 0, 2)
		for _, h := range s.pick(hashtagNames, s.rng.IntN(3)) {
			tags = append(tags, interests.Slugify(h))
		}
		if _, err := s.store.Write(ctx, createPostQuery, map[string]any{
			"id":        fmt.Sprintf("post-%04d", i+1),
			"userId":    ids[s.rng.IntN(len(ids))],
			"topic":     interests.Slugify(topic),
			"hashtags":  tags,
			"content":   fmt.Sprintf("Post %d about %s", i+1, topic),
			"createdAt": now.Add(-time.Duration(s.rng.IntN(30*24)) * time.Hour).Format(time.RFC3339),
			"likes":     int64(s.rng.IntN(500)),
			"comments":  int64(s.rng.IntN(80)),
			"shares":    int64(s.rng.IntN(40)),
		}); err != nil {
			return fmt.Errorf("create post %d: %w", i+1, err)
		}
	}

	return nil
}

// pick returns up to n distinct elements of from.
func (s *seeder) pick(from []string, n int) []string {
	if n > len(from) {
		n = len(from)
	}
	out := make([]string, 0, n)
	for _, i := range s.rng.Perm(len(from))[:n] {
		out = append(out, from[i])
	}
	return out
}
