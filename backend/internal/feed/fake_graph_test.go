package feed

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"social-graph/backend/internal/constants"
	"social-graph/backend/internal/graph"
	"social-graph/backend/internal/pagination"
)

type post struct {
	id        string
	creator   string
	topic     string
	hashtags  []string
	createdAt string
}

// socialGraph evaluates the feed templates over an in-memory graph.
type socialGraph struct {
	mu       sync.Mutex
	follows  map[string][]string         // user -> followed users
	topics   map[string]map[string]int64 // user -> topic -> interestLevel
	hashtags map[string][]string         // user -> followed hashtags
	posts    []post
	canned   map[string][]graph.Row // query name -> rows served verbatim
	calls    []string
	err      error
}

func newSocialGraph() *socialGraph {
	return &socialGraph{
		follows:  map[string][]string{},
		topics:   map[string]map[string]int64{},
		hashtags: map[string][]string{},
		canned:   map[string][]graph.Row{},
	}
}

func (g *socialGraph) follow(user, other string) { g.follows[user] = append(g.follows[user], other) }

func (g *socialGraph) interest(user, topic string, level int64) {
	if g.topics[user] == nil {
		g.topics[user] = map[string]int64{}
	}
	g.topics[user][topic] = level
}

func (g *socialGraph) followHashtag(user, tag string) {
	g.hashtags[user] = append(g.hashtags[user], tag)
}

func (g *socialGraph) addPost(p post) { g.posts = append(g.posts, p) }

func (g *socialGraph) Read(context.Context, graph.Query, map[string]any) ([]graph.Row, error) {
	return nil, fmt.Errorf("fake: unexpected read")
}

func (g *socialGraph) Write(context.Context, graph.Query, map[string]any) ([]graph.Row, error) {
	return nil, fmt.Errorf("fake: unexpected write")
}

func (g *socialGraph) ReadPage(ctx context.Context, data, count graph.Query, params map[string]any, opts pagination.Options) (*graph.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, data.Name)
	if g.err != nil {
		return nil, g.err
	}

	rows, ok := g.canned[data.Name]
	if !ok {
		user := params["userId"].(string)
		switch data.Name {
		case followingQuery.Name:
			rows = g.following(user)
		case personalizedQuery.Name:
			rows = g.personalized(user)
		default:
			return nil, fmt.Errorf("fake: unsupported page %s", data.Name)
		}
	}

	total := int64(len(rows))
	start := min(opts.Skip, len(rows))
	end := min(start+opts.Limit, len(rows))
	return &graph.Page{Rows: rows[start:end], Pagination: opts.Meta(total)}, nil
}

func (g *socialGraph) following(user string) []graph.Row {
	var rows []graph.Row
	for _, p := range g.posts {
		var tiers []any
		if contains(g.follows[user], p.creator) {
			tiers = append(tiers, int64(constants.TierFollowedUser))
		}
		if _, ok := g.topics[user][p.topic]; ok && p.topic != "" {
			tiers = append(tiers, int64(constants.TierInterestedTopic))
		}
		for _, h := range p.hashtags {
			if contains(g.hashtags[user], h) {
				tiers = append(tiers, int64(constants.TierFollowedHashtag))
				break
			}
		}
		if len(tiers) == 0 {
			continue
		}
		row := project(p)
		row["tiers"] = tiers
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		si, sj := TierScore(rows[i].Int64s("tiers")), TierScore(rows[j].Int64s("tiers"))
		if si != sj {
			return si > sj
		}
		return rows[i].String("createdAt") > rows[j].String("createdAt")
	})
	return rows
}

func (g *socialGraph) personalized(user string) []graph.Row {
	var rows []graph.Row
	for _, p := range g.posts {
		level, inTopic := g.topics[user][p.topic]
		member := int64(0)
		for _, h := range p.hashtags {
			if contains(g.hashtags[user], h) {
				member = 1
			}
		}
		if (!inTopic || p.topic == "") && member == 0 {
			continue
		}
		row := project(p)
		row["topicInterest"] = level
		row["hashtagMember"] = member
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		si := RelevanceScore(rows[i].Float64("topicInterest"), rows[i].Int64("hashtagMember") > 0)
		sj := RelevanceScore(rows[j].Float64("topicInterest"), rows[j].Int64("hashtagMember") > 0)
		if si != sj {
			return si > sj
		}
		return rows[i].String("createdAt") > rows[j].String("createdAt")
	})
	return rows
}

func project(p post) graph.Row {
	row := graph.Row{
		"postId":    p.id,
		"content":   "content of " + p.id,
		"createdAt": p.createdAt,
		"likes":     int64(1),
		"comments":  int64(2),
		"shares":    int64(3),
		"creator":   map[string]any{"id": p.creator, "username": "@" + p.creator},
	}
	if p.topic != "" {
		row["topic"] = map[string]any{"slug": p.topic, "name": p.topic}
	}
	tags := make([]any, 0, len(p.hashtags))
	for _, h := range p.hashtags {
		tags = append(tags, map[string]any{"slug": h, "name": h})
	}
	row["hashtags"] = tags
	return row
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
