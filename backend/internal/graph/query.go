package graph

import "strings"

// Label is a node label known to the engine.
type Label string

const (
	LabelUser    Label = "User"
	LabelPost    Label = "Post"
	LabelTopic   Label = "Topic"
	LabelHashtag Label = "Hashtag"
)

// RelType is a relationship type known to the engine.
type RelType string

const (
	RelFollows        RelType = "FOLLOWS"
	RelInterestedIn   RelType = "INTERESTED_IN"
	RelFollowsHashtag RelType = "FOLLOWS_HASHTAG"
	RelBelongsTo      RelType = "BELONGS_TO"
	RelHasHashtag     RelType = "HAS_HASHTAG"
	RelPosted         RelType = "POSTED"
	RelEngagesWith    RelType = "ENGAGES_WITH"
)

// Query is a named Cypher template. Every template the engine runs is a
// package-level value built once at init; caller input only ever reaches the
// store through bound parameters.
type Query struct {
	Name   string
	Cypher string
}

// String returns the template name, which is what logs and metrics carry.
func (q Query) String() string {
	return q.Name
}

// NewQuery builds a template, replacing {{Label}} style placeholders with the
// enumerated labels and relationship types in vars.
func NewQuery(name, cypher string, vars map[string]string) Query {
	if len(vars) > 0 {
		pairs := make([]string, 0, len(vars)*2)
		for k, v := range vars {
			pairs = append(pairs, "{{"+k+"}}", v)
		}
		cypher = strings.NewReplacer(pairs...).Replace(cypher)
	}
	return Query{Name: name, Cypher: cypher}
}
