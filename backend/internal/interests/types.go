package interests

import (
	"social-graph/backend/internal/graph"
)

// Kind pairs a target label with the relationship a user holds to it.
type Kind struct {
	Name  string
	Label graph.Label
	Rel   graph.RelType
}

var (
	KindTopic   = Kind{Name: "topic", Label: graph.LabelTopic, Rel: graph.RelInterestedIn}
	KindHashtag = Kind{Name: "hashtag", Label: graph.LabelHashtag, Rel: graph.RelFollowsHashtag}
)

// Topic is a followable subject.
type Topic struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Popularity  int64  `json:"popularity"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Hashtag is a followable tag.
type Hashtag struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Popularity int64  `json:"popularity"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// Interest is a target a user follows, with the edge properties.
type Interest[T any] struct {
	Target        T      `json:"target"`
	InterestLevel int64  `json:"interest_level"`
	Since         string `json:"since,omitempty"`
}

// TargetResult is the outcome of one slug in a follow/unfollow batch.
// Changed is true when an edge was created (follow) or removed (unfollow).
type TargetResult struct {
	Slug          string `json:"slug"`
	Changed       bool   `json:"changed"`
	Popularity    int64  `json:"popularity"`
	InterestLevel int    `json:"interest_level,omitempty"`
	Err           error  `json:"-"`
}

func topicFromRow(row graph.Row) Topic {
	return Topic{
		ID:          row.String("id"),
		Slug:        row.String("slug"),
		Name:        row.String("name"),
		Description: row.String("description"),
		Popularity:  row.Int64("popularity"),
		CreatedAt:   row.String("createdAt"),
		UpdatedAt:   row.String("updatedAt"),
	}
}

func hashtagFromRow(row graph.Row) Hashtag {
	return Hashtag{
		ID:         row.String("id"),
		Slug:       row.String("slug"),
		Name:       row.String("name"),
		Popularity: row.Int64("popularity"),
		CreatedAt:  row.String("createdAt"),
		UpdatedAt:  row.String("updatedAt"),
	}
}
