// Package api exposes the feed composer and the interest graph over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"social-graph/backend/internal/feed"
	"social-graph/backend/internal/interests"
	"social-graph/backend/internal/pagination"
)

type FeedService interface {
	GetFeed(ctx context.Context, userID string, opts pagination.Options) (*feed.Feed, error)
}

type InterestService interface {
	FollowTopics(ctx context.Context, userID string, slugs []string, interestLevel int) ([]interests.TargetResult, error)
	UnfollowTopics(ctx context.Context, userID string, slugs []string) ([]interests.TargetResult, error)
	FollowHashtags(ctx context.Context, userID string, slugs []string, interestLevel int) ([]interests.TargetResult, error)
	UnfollowHashtags(ctx context.Context, userID string, slugs []string) ([]interests.TargetResult, error)

	UpsertTopic(ctx context.Context, in interests.TopicInput) (*interests.Topic, error)
	UpsertHashtag(ctx context.Context, in interests.HashtagInput) (*interests.Hashtag, error)
	GetTopic(ctx context.Context, slug string) (*interests.Topic, error)
	GetHashtag(ctx context.Context, slug string) (*interests.Hashtag, error)
	ListTopics(ctx context.Context, opts pagination.Options) (*pagination.Response[interests.Topic], error)
	ListHashtags(ctx context.Context, opts pagination.Options) (*pagination.Response[interests.Hashtag], error)
	ListUserTopics(ctx context.Context, userID string, opts pagination.Options) (*pagination.Response[interests.Interest[interests.Topic]], error)
	ListUserHashtags(ctx context.Context, userID string, opts pagination.Options) (*pagination.Response[interests.Interest[interests.Hashtag]], error)
}

type Handler struct {
	feed      FeedService
	interests InterestService
	logger    *zap.Logger
}

func NewHandler(composer FeedService, svc InterestService, logger *zap.Logger) *Handler {
	return &Handler{feed: composer, interests: svc, logger: logger}
}

// Register mounts every route under r.
func (h *Handler) Register(r gin.IRouter) {
	users := r.Group("/users/:id")
	{
		users.GET("/feed", h.getFeed)

		users.GET("/topics", h.listUserTopics)
		users.POST("/topics", h.followTopics)
		users.DELETE("/topics", h.unfollowTopics)

		users.GET("/hashtags", h.listUserHashtags)
		users.POST("/hashtags", h.followHashtags)
		users.DELETE("/hashtags", h.unfollowHashtags)
	}

	topics := r.Group("/topics")
	{
		topics.GET("", h.listTopics)
		topics.PUT("", h.upsertTopic)
		topics.GET("/:slug", h.getTopic)
	}

	hashtags := r.Group("/hashtags")
	{
		hashtags.GET("", h.listHashtags)
		hashtags.PUT("", h.upsertHashtag)
		hashtags.GET("/:slug", h.getHashtag)
	}
}

func (h *Handler) getFeed(c *gin.Context) {
	result, err := h.feed.GetFeed(c.Request.Context(), c.Param("id"), pagination.FromValues(c.Request.URL.Query()))
	if err != nil {
		h.writeError(c, "Failed to compose feed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type followRequest struct {
	Slugs         []string `json:"slugs" binding:"required,min=1,max=100"`
	InterestLevel int      `json:"interest_level" binding:"omitempty,min=1,max=10"`
}

type unfollowRequest struct {
	Slugs []string `json:"slugs" binding:"required,min=1,max=100"`
}

type targetResponse struct {
	interests.TargetResult
	Error string `json:"error,omitempty"`
}

type mutateFunc func(ctx context.Context, userID string, slugs []string) ([]interests.TargetResult, error)

func (h *Handler) followTopics(c *gin.Context) {
	h.follow(c, h.interests.FollowTopics)
}

func (h *Handler) followHashtags(c *gin.Context) {
	h.follow(c, h.interests.FollowHashtags)
}

func (h *Handler) unfollowTopics(c *gin.Context) {
	h.unfollow(c, h.interests.UnfollowTopics)
}

func (h *Handler) unfollowHashtags(c *gin.Context) {
	h.unfollow(c, h.interests.UnfollowHashtags)
}

func (h *Handler) follow(c *gin.Context, fn func(context.Context, string, []string, int) ([]interests.TargetResult, error)) {
	var req followRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, func(ctx context.Context, userID string, slugs []string) ([]interests.TargetResult, error) {
		return fn(ctx, userID, slugs, req.InterestLevel)
	}, req.Slugs)
}

func (h *Handler) unfollow(c *gin.Context, fn mutateFunc) {
	var req unfollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.mutate(c, fn, req.Slugs)
}

// mutate runs a batch and reports per-target outcomes. The request fails as a
// whole only when no target succeeded.
func (h *Handler) mutate(c *gin.Context, fn mutateFunc, slugs []string) {
	results, err := fn(c.Request.Context(), c.Param("id"), slugs)

	out := make([]targetResponse, 0, len(results))
	var firstErr error
	failed := 0
	for _, r := range results {
		resp := targetResponse{TargetResult: r}
		if r.Err != nil {
			resp.Error = r.Err.Error()
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
		}
		out = append(out, resp)
	}

	if err != nil && (len(results) == 0 || failed == len(results)) {
		if firstErr == nil {
			firstErr = err
		}
		h.writeError(c, "Failed to update interests", firstErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *Handler) listUserTopics(c *gin.Context) {
	page, err := h.interests.ListUserTopics(c.Request.Context(), c.Param("id"), pagination.FromValues(c.Request.URL.Query()))
	if err != nil {
		h.writeError(c, "Failed to list user topics", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) listUserHashtags(c *gin.Context) {
	page, err := h.interests.ListUserHashtags(c.Request.Context(), c.Param("id"), pagination.FromValues(c.Request.URL.Query()))
	if err != nil {
		h.writeError(c, "Failed to list user hashtags", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) listTopics(c *gin.Context) {
	page, err := h.interests.ListTopics(c.Request.Context(), pagination.FromValues(c.Request.URL.Query()))
	if err != nil {
		h.writeError(c, "Failed to list topics", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) listHashtags(c *gin.Context) {
	page, err := h.interests.ListHashtags(c.Request.Context(), pagination.FromValues(c.Request.URL.Query()))
	if err != nil {
		h.writeError(c, "Failed to list hashtags", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) getTopic(c *gin.Context) {
	topic, err := h.interests.GetTopic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeError(c, "Failed to fetch topic", err)
		return
	}
	c.JSON(http.StatusOK, topic)
}

func (h *Handler) getHashtag(c *gin.Context) {
	hashtag, err := h.interests.GetHashtag(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.writeError(c, "Failed to fetch hashtag", err)
		return
	}
	c.JSON(http.StatusOK, hashtag)
}

func (h *Handler) upsertTopic(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := interests.DecodeTopicInput(raw)
	if err != nil {
		h.writeError(c, "Invalid topic", err)
		return
	}
	topic, err := h.interests.UpsertTopic(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, "Failed to upsert topic", err)
		return
	}
	c.JSON(http.StatusOK, topic)
}

func (h *Handler) upsertHashtag(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	in, err := interests.DecodeHashtagInput(raw)
	if err != nil {
		h.writeError(c, "Invalid hashtag", err)
		return
	}
	hashtag, err := h.interests.UpsertHashtag(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, "Failed to upsert hashtag", err)
		return
	}
	c.JSON(http.StatusOK, hashtag)
}
