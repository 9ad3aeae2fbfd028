package feed

import (
	"social-graph/backend/internal/graph"
	"social-graph/backend/internal/pagination"
)

type Engagement struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
}

type Creator struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type TopicRef struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type HashtagRef struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Item is one ranked post. Score is the tier score for the following feed
// and the relevance score for the personalized feed.
type Item struct {
	PostID     string       `json:"postId"`
	Content    string       `json:"content"`
	CreatedAt  string       `json:"createdAt"`
	Engagement Engagement   `json:"engagement"`
	Creator    *Creator     `json:"creator,omitempty"`
	Topic      *TopicRef    `json:"topic,omitempty"`
	Hashtags   []HashtagRef `json:"hashtags"`
	Score      float64      `json:"score"`
}

// Feed is one page of ranked posts plus the strategy that produced it.
type Feed struct {
	Data       []Item                `json:"data"`
	Pagination pagination.Pagination `json:"pagination"`
	Strategy   string                `json:"strategy"`
}

func itemFromRow(row graph.Row) Item {
	item := Item{
		PostID:    row.String("postId"),
		Content:   row.String("content"),
		CreatedAt: row.String("createdAt"),
		Engagement: Engagement{
			Likes:    row.Int64("likes"),
			Comments: row.Int64("comments"),
			Shares:   row.Int64("shares"),
		},
		Hashtags: []HashtagRef{},
	}
	if c := row.Map("creator"); c != nil {
		item.Creator = &Creator{ID: c.String("id"), Username: c.String("username")}
	}
	if t := row.Map("topic"); t != nil {
		item.Topic = &TopicRef{Slug: t.String("slug"), Name: t.String("name")}
	}
	for _, h := range row.Maps("hashtags") {
		item.Hashtags = append(item.Hashtags, HashtagRef{Slug: h.String("slug"), Name: h.String("name")})
	}
	return item
}
