package interests

import (
	"social-graph/backend/internal/graph"
	"social-graph/backend/internal/pagination"
)

// templates is the closed set of statements run for one Kind.
type templates struct {
	follow    graph.Query
	unfollow  graph.Query
	get       graph.Query
	list      map[string]graph.Query // keyed by sort direction
	count     graph.Query
	listUser  map[string]graph.Query
	countUser graph.Query
}

const targetProjection = `t {.id, .slug, .name, .description, .popularity, .createdAt, .updatedAt}`

// The existence of the edge is captured before the MERGE so popularity only
// moves on the first follow. Edge and counter change in one statement.
const followCypher = `
	MATCH (u:{{User}} {id: $userId})
	MERGE (t:{{Target}} {slug: $slug})
	ON CREATE SET t.id = $id, t.name = $name, t.popularity = 0,
	              t.createdAt = datetime(), t.updatedAt = datetime()
	WITH u, t
	OPTIONAL MATCH (u)-[existing:{{Rel}}]->(t)
	WITH u, t, existing IS NULL AS isNew
	MERGE (u)-[r:{{Rel}}]->(t)
	ON CREATE SET r.since = datetime()
	SET r.interestLevel = $interestLevel,
	    t.popularity = CASE WHEN isNew THEN coalesce(t.popularity, 0) + 1 ELSE coalesce(t.popularity, 0) END
	RETURN t.slug AS slug, t.popularity AS popularity, isNew AS created, r.interestLevel AS interestLevel
`

const unfollowCypher = `
	MATCH (:{{User}} {id: $userId})-[r:{{Rel}}]->(t:{{Target}} {slug: $slug})
	DELETE r
	SET t.popularity = CASE WHEN coalesce(t.popularity, 0) > 0 THEN t.popularity - 1 ELSE 0 END,
	    t.updatedAt = datetime()
	RETURN t.slug AS slug, t.popularity AS popularity
`

const getCypher = `
	MATCH (t:{{Target}} {slug: $slug})
	RETURN ` + targetProjection + ` AS target
`

const searchPredicate = `$search IS NULL OR t.slug CONTAINS $search OR toLower(t.name) CONTAINS $search`

const listCypher = `
	MATCH (t:{{Target}})
	WHERE ` + searchPredicate + `
	RETURN ` + targetProjection + ` AS target
	ORDER BY t.popularity {{Dir}}, t.slug ASC
	SKIP $skip LIMIT $limit
`

const countCypher = `
	MATCH (t:{{Target}})
	WHERE ` + searchPredicate + `
	RETURN count(t) AS total
`

const listUserCypher = `
	MATCH (:{{User}} {id: $userId})-[r:{{Rel}}]->(t:{{Target}})
	WHERE ` + searchPredicate + `
	RETURN ` + targetProjection + ` AS target, r.interestLevel AS interestLevel, r.since AS since
	ORDER BY r.since {{Dir}}, t.slug ASC
	SKIP $skip LIMIT $limit
`

const countUserCypher = `
	MATCH (:{{User}} {id: $userId})-[:{{Rel}}]->(t:{{Target}})
	WHERE ` + searchPredicate + `
	RETURN count(t) AS total
`

var (
	upsertTopicQuery = graph.NewQuery("interests.topic.upsert", `
	MERGE (t:{{Topic}} {slug: $slug})
	ON CREATE SET t.id = $id, t.popularity = 0, t.description = '', t.createdAt = datetime()
	SET t.name = $name,
	    t.description = coalesce($description, t.description),
	    t.updatedAt = datetime()
	RETURN `+targetProjection+` AS target
`, map[string]string{"Topic": string(graph.LabelTopic)})

	upsertHashtagQuery = graph.NewQuery("interests.hashtag.upsert", `
	MERGE (t:{{Hashtag}} {slug: $slug})
	ON CREATE SET t.id = $id, t.popularity = 0, t.createdAt = datetime()
	SET t.name = $name,
	    t.updatedAt = datetime()
	RETURN `+targetProjection+` AS target
`, map[string]string{"Hashtag": string(graph.LabelHashtag)})
)

var queries = map[string]templates{
	KindTopic.Name:   buildTemplates(KindTopic),
	KindHashtag.Name: buildTemplates(KindHashtag),
}

func buildTemplates(k Kind) templates {
	vars := map[string]string{
		"User":   string(graph.LabelUser),
		"Target": string(k.Label),
		"Rel":    string(k.Rel),
	}
	withDir := func(dir string) map[string]string {
		v := make(map[string]string, len(vars)+1)
		for key, val := range vars {
			v[key] = val
		}
		v["Dir"] = dir
		return v
	}
	name := func(op string) string { return "interests." + k.Name + "." + op }

	return templates{
		follow:   graph.NewQuery(name("follow"), followCypher, vars),
		unfollow: graph.NewQuery(name("unfollow"), unfollowCypher, vars),
		get:      graph.NewQuery(name("get"), getCypher, vars),
		list: map[string]graph.Query{
			pagination.SortAsc:  graph.NewQuery(name("list"), listCypher, withDir(pagination.SortAsc)),
			pagination.SortDesc: graph.NewQuery(name("list"), listCypher, withDir(pagination.SortDesc)),
		},
		count: graph.NewQuery(name("count"), countCypher, vars),
		listUser: map[string]graph.Query{
			pagination.SortAsc:  graph.NewQuery(name("list_user"), listUserCypher, withDir(pagination.SortAsc)),
			pagination.SortDesc: graph.NewQuery(name("list_user"), listUserCypher, withDir(pagination.SortDesc)),
		},
		countUser: graph.NewQuery(name("count_user"), countUserCypher, vars),
	}
}

func (t templates) listFor(sort string) graph.Query {
	if q, ok := t.list[sort]; ok {
		return q
	}
	return t.list[pagination.SortDesc]
}

func (t templates) listUserFor(sort string) graph.Query {
	if q, ok := t.listUser[sort]; ok {
		return q
	}
	return t.listUser[pagination.SortDesc]
}
