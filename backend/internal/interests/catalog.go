package interests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"social-graph/backend/internal/graph"
	"social-graph/backend/internal/pagination"
	apperrors "social-graph/backend/pkg/errors"
)

// TopicInput lists the only topic fields a client may write. Identity,
// slug, popularity and timestamps are managed by the engine.
type TopicInput struct {
	Name        string  `json:"name" validate:"required,max=64"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
}

// HashtagInput lists the only hashtag fields a client may write.
type HashtagInput struct {
	Name string `json:"name" validate:"required,max=64"`
}

var (
	topicFields   = []string{"name", "description"}
	hashtagFields = []string{"name"}
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// DecodeTopicInput builds a TopicInput from an arbitrary property map,
// rejecting any key outside the allow-list.
func DecodeTopicInput(raw map[string]any) (TopicInput, error) {
	if err := checkFields(raw, topicFields); err != nil {
		return TopicInput{}, err
	}
	var in TopicInput
	name, err := stringField(raw, "name")
	if err != nil {
		return TopicInput{}, err
	}
	in.Name = name
	if v, ok := raw["description"]; ok && v != nil {
		desc, err := stringField(raw, "description")
		if err != nil {
			return TopicInput{}, err
		}
		in.Description = &desc
	}
	return in, nil
}

// DecodeHashtagInput is DecodeTopicInput for hashtags.
func DecodeHashtagInput(raw map[string]any) (HashtagInput, error) {
	if err := checkFields(raw, hashtagFields); err != nil {
		return HashtagInput{}, err
	}
	name, err := stringField(raw, "name")
	if err != nil {
		return HashtagInput{}, err
	}
	return HashtagInput{Name: name}, nil
}

func checkFields(raw map[string]any, allowed []string) error {
	var rejected []string
	for k := range raw {
		ok := false
		for _, a := range allowed {
			if k == a {
				ok = true
				break
			}
		}
		if !ok {
			rejected = append(rejected, k)
		}
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return apperrors.NewValidationFailed(strings.Join(rejected, ","), "field is not writable")
	}
	return nil
}

func stringField(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", apperrors.NewValidationFailed(key, "must be a string")
	}
	return s, nil
}

func validateInput(in any) error {
	err := getValidator().Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewValidationFailed(strings.ToLower(fe.Field()), fmt.Sprintf("failed '%s' check", fe.Tag()))
	}
	return apperrors.NewValidationFailed("input", err.Error())
}

// UpsertTopic creates the topic keyed by the slug of its name, or updates the
// allow-listed fields of the existing one.
func (s *Service) UpsertTopic(ctx context.Context, in TopicInput) (*Topic, error) {
	in.Name = DisplayName(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	slug := Slugify(in.Name)
	if slug == "" {
		return nil, apperrors.NewValidationFailed("name", "has no usable characters")
	}

	var description any
	if in.Description != nil {
		description = strings.TrimSpace(*in.Description)
	}

	rows, err := s.runner.Write(ctx, upsertTopicQuery, map[string]any{
		"slug":        slug,
		"id":          s.newID(),
		"name":        in.Name,
		"description": description,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewGraphQueryFailed(upsertTopicQuery.Name, fmt.Errorf("no row returned for %s", slug))
	}

	topic := topicFromRow(rows[0].Map("target"))
	s.logger.Info("Topic upserted", zap.String("slug", topic.Slug))
	return &topic, nil
}

// UpsertHashtag creates or renames the hashtag keyed by the slug of its name.
func (s *Service) UpsertHashtag(ctx context.Context, in HashtagInput) (*Hashtag, error) {
	in.Name = DisplayName(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	slug := Slugify(in.Name)
	if slug == "" {
		return nil, apperrors.NewValidationFailed("name", "has no usable characters")
	}

	rows, err := s.runner.Write(ctx, upsertHashtagQuery, map[string]any{
		"slug": slug,
		"id":   s.newID(),
		"name": in.Name,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewGraphQueryFailed(upsertHashtagQuery.Name, fmt.Errorf("no row returned for %s", slug))
	}

	hashtag := hashtagFromRow(rows[0].Map("target"))
	s.logger.Info("Hashtag upserted", zap.String("slug", hashtag.Slug))
	return &hashtag, nil
}

// GetTopic returns the topic with the given slug (or display name).
func (s *Service) GetTopic(ctx context.Context, slug string) (*Topic, error) {
	row, err := s.get(ctx, KindTopic, slug)
	if err != nil {
		return nil, err
	}
	topic := topicFromRow(row)
	return &topic, nil
}

// GetHashtag returns the hashtag with the given slug (or display name).
func (s *Service) GetHashtag(ctx context.Context, slug string) (*Hashtag, error) {
	row, err := s.get(ctx, KindHashtag, slug)
	if err != nil {
		return nil, err
	}
	hashtag := hashtagFromRow(row)
	return &hashtag, nil
}

func (s *Service) get(ctx context.Context, kind Kind, raw string) (graph.Row, error) {
	slug := Slugify(raw)
	if slug == "" {
		return nil, apperrors.NewNotFound(kind.Name, raw)
	}
	rows, err := s.runner.Read(ctx, queries[kind.Name].get, map[string]any{"slug": slug})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperrors.NewNotFound(kind.Name, slug)
	}
	return rows[0].Map("target"), nil
}

// ListTopics pages through all topics ordered by popularity.
func (s *Service) ListTopics(ctx context.Context, opts pagination.Options) (*pagination.Response[Topic], error) {
	return listTargets(ctx, s.runner, queries[KindTopic.Name].listFor(opts.Sort), queries[KindTopic.Name].count, nil, opts, topicFromRow)
}

// ListHashtags pages through all hashtags ordered by popularity.
func (s *Service) ListHashtags(ctx context.Context, opts pagination.Options) (*pagination.Response[Hashtag], error) {
	return listTargets(ctx, s.runner, queries[KindHashtag.Name].listFor(opts.Sort), queries[KindHashtag.Name].count, nil, opts, hashtagFromRow)
}

// ListUserTopics pages through the topics a user is interested in, most recent first by default.
func (s *Service) ListUserTopics(ctx context.Context, userID string, opts pagination.Options) (*pagination.Response[Interest[Topic]], error) {
	t := queries[KindTopic.Name]
	return listTargets(ctx, s.runner, t.listUserFor(opts.Sort), t.countUser, map[string]any{"userId": userID}, opts, interestFromRow(topicFromRow))
}

// ListUserHashtags pages through the hashtags a user follows.
func (s *Service) ListUserHashtags(ctx context.Context, userID string, opts pagination.Options) (*pagination.Response[Interest[Hashtag]], error) {
	t := queries[KindHashtag.Name]
	return listTargets(ctx, s.runner, t.listUserFor(opts.Sort), t.countUser, map[string]any{"userId": userID}, opts, interestFromRow(hashtagFromRow))
}

func interestFromRow[T any](parse func(graph.Row) T) func(graph.Row) Interest[T] {
	return func(row graph.Row) Interest[T] {
		return Interest[T]{
			Target:        parse(row),
			InterestLevel: row.Int64("interestLevel"),
			Since:         row.String("since"),
		}
	}
}

// listTargets runs a paginated template whose rows carry the target under
// "target"; parse receives that map merged with the row's other columns.
func listTargets[T any](ctx context.Context, runner graph.Runner, data, count graph.Query, params map[string]any, opts pagination.Options, parse func(graph.Row) T) (*pagination.Response[T], error) {
	page, err := runner.ReadPage(ctx, data, count, params, opts)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(page.Rows))
	for _, row := range page.Rows {
		merged := graph.Row{}
		for k, v := range row {
			if k != "target" {
				merged[k] = v
			}
		}
		for k, v := range row.Map("target") {
			merged[k] = v
		}
		items = append(items, parse(merged))
	}

	return &pagination.Response[T]{Data: items, Pagination: page.Pagination}, nil
}
