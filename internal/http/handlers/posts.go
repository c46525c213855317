package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"blogpress/internal/cache"
	"blogpress/internal/domain/post"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type PostsStore interface {
	Create(ctx context.Context, req post.CreatePostRequest) (post.Post, error)
	List(ctx context.Context, filter post.ListPostsFilter) ([]post.Post, int, error)
	ListByAuthor(ctx context.Context, author string) ([]post.Post, error)
	GetByID(ctx context.Context, id string) (post.Post, error)
	Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error)
	Delete(ctx context.Context, id string) error
}

type PostsHandler struct {
	repo  PostsStore
	cache *cache.PostCache
}

func NewPostsHandler(repo PostsStore, postCache *cache.PostCache) *PostsHandler {
	return &PostsHandler{
		repo:  repo,
		cache: postCache,
	}
}

func (h *PostsHandler) CreatePost(ctx *gin.Context) {
	var req post.CreatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	created, err := h.repo.Create(ctx.Request.Context(), req)

	if err != nil {
		RespondInternal(ctx, "Could not create post")
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), "")

	ctx.JSON(http.StatusCreated, created)
}

type postListResponse struct {
	Total      int         `json:"total"`
	TotalPages int         `json:"totalPages"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Items      []post.Post `json:"items"`
	NextPage   *string     `json:"nextPage"`
}

// ListPosts serves both the paginated listing and the exact-author
// filter (?autor=). An empty author match is reported as not-found; an
// empty page past the end of the paginated listing is a valid response.
func (h *PostsHandler) ListPosts(ctx *gin.Context) {
	if author := ctx.Query("autor"); author != "" {
		h.listByAuthor(ctx, author)
		return
	}

	page := parsePositiveInt(ctx.Query("page"), defaultPage)
	limit := parsePositiveInt(ctx.Query("limit"), defaultLimit)

	if limit > maxLimit {
		limit = maxLimit
	}

	rctx := ctx.Request.Context()

	key := cache.ListKey(h.cache.Version(rctx), page, limit)

	var resp postListResponse

	if h.cache.Get(rctx, key, &resp) {
		ctx.JSON(http.StatusOK, resp)
		return
	}

	items, total, err := h.repo.List(rctx, post.ListPostsFilter{Page: page, Limit: limit})

	if err != nil {
		RespondInternal(ctx, "Could not list posts")
		return
	}

	totalPages := (total + limit - 1) / limit

	var nextPage *string

	if page < totalPages {
		u := fmt.Sprintf("/postagens?page=%d&limit=%d", page+1, limit)
		nextPage = &u
	}

	resp = postListResponse{
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		Limit:      limit,
		Items:      items,
		NextPage:   nextPage,
	}

	h.cache.Set(rctx, key, resp)

	ctx.JSON(http.StatusOK, resp)
}

func (h *PostsHandler) listByAuthor(ctx *gin.Context, author string) {
	items, err := h.repo.ListByAuthor(ctx.Request.Context(), author)

	if err != nil {
		RespondInternal(ctx, "Could not list posts")
		return
	}

	if len(items) == 0 {
		RespondNotFound(ctx, "No posts found for this author")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *PostsHandler) GetPostByID(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	rctx := ctx.Request.Context()

	var cached post.Post

	if h.cache.Get(rctx, cache.PostKey(id), &cached) {
		ctx.JSON(http.StatusOK, cached)
		return
	}

	p, err := h.repo.GetByID(rctx, id)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not fetch post")
		return
	}

	h.cache.Set(rctx, cache.PostKey(id), p)

	ctx.JSON(http.StatusOK, p)
}

func (h *PostsHandler) UpdatePost(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	var req post.UpdatePostRequest

	if !BindJSON(ctx, &req) {
		return
	}

	updated, err := h.repo.Update(ctx.Request.Context(), id, req)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not update post")
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), id)

	ctx.JSON(http.StatusOK, updated)
}

func (h *PostsHandler) DeletePost(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	err := h.repo.Delete(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			RespondNotFound(ctx, "Post not found")
			return
		}
		RespondInternal(ctx, "Could not delete post")
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), id)

	ctx.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// pathID validates the :id path parameter before any DB access.
func pathID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")

	if _, err := uuid.Parse(id); err != nil {
		RespondBadRequest(ctx, "Invalid id", gin.H{"fields": []FieldError{
			{Field: "id", Rule: "uuid", Message: "must be a valid UUID"},
		}})
		return "", false
	}

	return id, true
}

func parsePositiveInt(s string, fallback int) int {
	if s == "" {
		return fallback
	}

	n, err := strconv.Atoi(s)

	if err != nil || n < 1 {
		return fallback
	}

	return n
}
