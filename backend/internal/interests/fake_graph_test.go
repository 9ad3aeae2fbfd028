package interests

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"social-graph/backend/internal/graph"
	"social-graph/backend/internal/pagination"
)

// fakeGraph is an in-memory stand-in for the store that understands the
// interests templates by name. Each call is applied under one lock, mirroring
// the single-statement atomicity the real templates rely on.
type fakeGraph struct {
	mu      sync.Mutex
	users   map[string]bool
	nodes   map[string]map[string]graph.Row // kind -> slug -> properties
	edges   map[string]map[string]int64     // kind -> user|slug -> interestLevel
	failOn  map[string]error                // slug -> error returned by writes
	calls   []string
	clock   int
	sinceAt map[string]string
}

func newFakeGraph(users ...string) *fakeGraph {
	f := &fakeGraph{
		users:   map[string]bool{},
		nodes:   map[string]map[string]graph.Row{KindTopic.Name: {}, KindHashtag.Name: {}},
		edges:   map[string]map[string]int64{KindTopic.Name: {}, KindHashtag.Name: {}},
		failOn:  map[string]error{},
		sinceAt: map[string]string{},
	}
	for _, u := range users {
		f.users[u] = true
	}
	return f
}

func (f *fakeGraph) popularity(kind Kind, slug string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	node, ok := f.nodes[kind.Name][slug]
	if !ok {
		return -1
	}
	return node.Int64("popularity")
}

func (f *fakeGraph) hasNode(kind Kind, slug string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.nodes[kind.Name][slug]
	return ok
}

func (f *fakeGraph) edgeLevel(kind Kind, user, slug string) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lvl, ok := f.edges[kind.Name][user+"|"+slug]
	return lvl, ok
}

func parseName(name string) (kind, op string) {
	parts := strings.Split(name, ".")
	if len(parts) != 3 || parts[0] != "interests" {
		return "", ""
	}
	return parts[1], parts[2]
}

func (f *fakeGraph) Read(ctx context.Context, q graph.Query, params map[string]any) ([]graph.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q.Name)

	kind, op := parseName(q.Name)
	if op != "get" {
		return nil, fmt.Errorf("fake: unsupported read %s", q.Name)
	}
	node, ok := f.nodes[kind][params["slug"].(string)]
	if !ok {
		return nil, nil
	}
	return []graph.Row{{"target": map[string]any(copyRow(node))}}, nil
}

func (f *fakeGraph) Write(ctx context.Context, q graph.Query, params map[string]any) ([]graph.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q.Name)

	if slug, ok := params["slug"].(string); ok {
		if err := f.failOn[slug]; err != nil {
			return nil, err
		}
	}

	kind, op := parseName(q.Name)
	switch op {
	case "follow":
		user := params["userId"].(string)
		if !f.users[user] {
			return nil, nil
		}
		slug := params["slug"].(string)
		node := f.ensureNode(kind, slug, params)
		key := user + "|" + slug
		_, existed := f.edges[kind][key]
		f.edges[kind][key] = params["interestLevel"].(int64)
		if !existed {
			f.clock++
			f.sinceAt[kind+key] = fmt.Sprintf("2024-01-01T00:00:%02dZ", f.clock)
			node["popularity"] = node.Int64("popularity") + 1
		}
		return []graph.Row{{
			"slug":          slug,
			"popularity":    node.Int64("popularity"),
			"created":       !existed,
			"interestLevel": params["interestLevel"].(int64),
		}}, nil

	case "unfollow":
		user := params["userId"].(string)
		slug := params["slug"].(string)
		key := user + "|" + slug
		if _, ok := f.edges[kind][key]; !ok {
			return nil, nil
		}
		delete(f.edges[kind], key)
		node := f.nodes[kind][slug]
		if p := node.Int64("popularity"); p > 0 {
			node["popularity"] = p - 1
		} else {
			node["popularity"] = int64(0)
		}
		return []graph.Row{{"slug": slug, "popularity": node.Int64("popularity")}}, nil

	case "upsert":
		slug := params["slug"].(string)
		node := f.ensureNode(kind, slug, params)
		node["name"] = params["name"]
		if desc, ok := params["description"].(string); ok {
			node["description"] = desc
		}
		return []graph.Row{{"target": map[string]any(copyRow(node))}}, nil
	}
	return nil, fmt.Errorf("fake: unsupported write %s", q.Name)
}

func (f *fakeGraph) ReadPage(ctx context.Context, data, count graph.Query, params map[string]any, opts pagination.Options) (*graph.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, data.Name, count.Name)

	kind, op := parseName(data.Name)
	var rows []graph.Row
	switch op {
	case "list":
		for _, node := range f.nodes[kind] {
			if matches(node, opts.Search) {
				rows = append(rows, graph.Row{"target": map[string]any(copyRow(node))})
			}
		}
		sort.Slice(rows, func(i, j int) bool {
			a, b := rows[i].Map("target"), rows[j].Map("target")
			if a.Int64("popularity") != b.Int64("popularity") {
				if opts.Sort == pagination.SortAsc {
					return a.Int64("popularity") < b.Int64("popularity")
				}
				return a.Int64("popularity") > b.Int64("popularity")
			}
			return a.String("slug") < b.String("slug")
		})
	case "list_user":
		user := params["userId"].(string)
		for key, lvl := range f.edges[kind] {
			parts := strings.SplitN(key, "|", 2)
			if parts[0] != user {
				continue
			}
			node := f.nodes[kind][parts[1]]
			if !matches(node, opts.Search) {
				continue
			}
			rows = append(rows, graph.Row{
				"target":        map[string]any(copyRow(node)),
				"interestLevel": lvl,
				"since":         f.sinceAt[kind+key],
			})
		}
		sort.Slice(rows, func(i, j int) bool {
			if opts.Sort == pagination.SortAsc {
				return rows[i].String("since") < rows[j].String("since")
			}
			return rows[i].String("since") > rows[j].String("since")
		})
	default:
		return nil, fmt.Errorf("fake: unsupported page %s", data.Name)
	}

	total := int64(len(rows))
	start := opts.Skip
	if start > len(rows) {
		start = len(rows)
	}
	end := start + opts.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return &graph.Page{Rows: rows[start:end], Pagination: opts.Meta(total)}, nil
}

func (f *fakeGraph) ensureNode(kind, slug string, params map[string]any) graph.Row {
	node, ok := f.nodes[kind][slug]
	if !ok {
		node = graph.Row{
			"id":         params["id"],
			"slug":       slug,
			"name":       params["name"],
			"popularity": int64(0),
		}
		if kind == KindTopic.Name {
			node["description"] = ""
		}
		f.nodes[kind][slug] = node
	}
	return node
}

func matches(node graph.Row, search *string) bool {
	if search == nil {
		return true
	}
	return strings.Contains(node.String("slug"), *search) ||
		strings.Contains(strings.ToLower(node.String("name")), *search)
}

func copyRow(r graph.Row) graph.Row {
	out := make(graph.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
