package feed

import (
	"social-graph/backend/internal/graph"
)

var labelVars = map[string]string{
	"User":            string(graph.LabelUser),
	"Post":            string(graph.LabelPost),
	"Topic":           string(graph.LabelTopic),
	"Hashtag":         string(graph.LabelHashtag),
	"FOLLOWS":         string(graph.RelFollows),
	"POSTED":          string(graph.RelPosted),
	"INTERESTED_IN":   string(graph.RelInterestedIn),
	"FOLLOWS_HASHTAG": string(graph.RelFollowsHashtag),
	"BELONGS_TO":      string(graph.RelBelongsTo),
	"HAS_HASHTAG":     string(graph.RelHasHashtag),
}

// Candidate posts of the following feed, one row per (post, facet).
const followingCandidates = `
	MATCH (me:{{User}} {id: $userId})
	CALL {
		WITH me
		MATCH (me)-[:{{FOLLOWS}}]->(:{{User}})-[:{{POSTED}}]->(p:{{Post}})
		RETURN p, $tierFollowedUser AS tier
		UNION
		WITH me
		MATCH (me)-[:{{INTERESTED_IN}}]->(:{{Topic}})<-[:{{BELONGS_TO}}]-(p:{{Post}})
		RETURN p, $tierInterestedTopic AS tier
		UNION
		WITH me
		MATCH (me)-[:{{FOLLOWS_HASHTAG}}]->(:{{Hashtag}})<-[:{{HAS_HASHTAG}}]-(p:{{Post}})
		RETURN p, $tierFollowedHashtag AS tier
	}
`

// Candidate posts of the personalized feed, one row per post.
const personalizedCandidates = `
	MATCH (me:{{User}} {id: $userId})
	CALL {
		WITH me
		MATCH (me)-[:{{INTERESTED_IN}}]->(:{{Topic}})<-[:{{BELONGS_TO}}]-(p:{{Post}})
		RETURN p
		UNION
		WITH me
		MATCH (me)-[:{{FOLLOWS_HASHTAG}}]->(:{{Hashtag}})<-[:{{HAS_HASHTAG}}]-(p:{{Post}})
		RETURN p
	}
`

// projection turns the paged posts into feed items, carrying the score
// columns named in carry.
func projection(carry, order string) string {
	return `
	OPTIONAL MATCH (creator:{{User}})-[:{{POSTED}}]->(p)
	OPTIONAL MATCH (p)-[:{{BELONGS_TO}}]->(t:{{Topic}})
	OPTIONAL MATCH (p)-[:{{HAS_HASHTAG}}]->(h:{{Hashtag}})
	WITH p, ` + carry + `,
	     head(collect(DISTINCT creator)) AS creator,
	     head(collect(DISTINCT t)) AS topic,
	     [x IN collect(DISTINCT h) | x {.slug, .name}] AS hashtags
	RETURN p.id AS postId,
	       p.content AS content,
	       p.createdAt AS createdAt,
	       coalesce(p.likes, 0) AS likes,
	       coalesce(p.comments, 0) AS comments,
	       coalesce(p.shares, 0) AS shares,
	       creator {.id, .username} AS creator,
	       CASE WHEN topic IS NULL THEN null ELSE topic {.slug, .name} END AS topic,
	       hashtags,
	       ` + carry + `
	ORDER BY ` + order + `
`
}

var (
	followingQuery = graph.NewQuery("feed.following", followingCandidates+`
	WITH p, collect(DISTINCT tier) AS tiers
	WITH p, tiers, reduce(best = 0, x IN tiers | CASE WHEN x > best THEN x ELSE best END) AS tierScore
	ORDER BY tierScore DESC, p.createdAt DESC
	SKIP $skip LIMIT $limit
	`+projection("tiers, tierScore", "tierScore DESC, createdAt DESC"), labelVars)

	followingCountQuery = graph.NewQuery("feed.following_count", followingCandidates+`
	RETURN count(DISTINCT p) AS total
	`, labelVars)

	personalizedQuery = graph.NewQuery("feed.personalized", personalizedCandidates+`
	OPTIONAL MATCH (me)-[i:{{INTERESTED_IN}}]->(:{{Topic}})<-[:{{BELONGS_TO}}]-(p)
	WITH me, p, max(coalesce(i.interestLevel, 0)) AS topicInterest
	OPTIONAL MATCH (me)-[f:{{FOLLOWS_HASHTAG}}]->(:{{Hashtag}})<-[:{{HAS_HASHTAG}}]-(p)
	WITH p, topicInterest, CASE WHEN count(f) > 0 THEN 1 ELSE 0 END AS hashtagMember
	WITH p, topicInterest, hashtagMember,
	     $topicWeight * topicInterest + $hashtagWeight * hashtagMember AS relevance
	ORDER BY relevance DESC, p.createdAt DESC
	SKIP $skip LIMIT $limit
	`+projection("topicInterest, hashtagMember, relevance", "relevance DESC, createdAt DESC"), labelVars)

	personalizedCountQuery = graph.NewQuery("feed.personalized_count", personalizedCandidates+`
	RETURN count(DISTINCT p) AS total
	`, labelVars)
)
