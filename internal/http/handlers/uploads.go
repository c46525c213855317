package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"blogpress/internal/cache"
	"blogpress/internal/domain/post"
	"blogpress/internal/domain/user"
	"blogpress/internal/http/middlewares"
	"blogpress/internal/observability"
	"blogpress/internal/upload"

	"github.com/gin-gonic/gin"
)

const uploadField = "imagem"

type ImageStore interface {
	Save(resource string, fh *multipart.FileHeader) (string, error)
	Remove(relPath string) error
}

type PostImageRecorder interface {
	SetImage(ctx context.Context, id string, path string) error
}

type UserImageRecorder interface {
	SetImage(ctx context.Context, id string, path string) error
}

type UploadsHandler struct {
	store     ImageStore
	posts     PostImageRecorder
	users     UserImageRecorder
	cache     *cache.PostCache
	prom      *observability.Prom
	publicURL string
}

func NewUploadsHandler(store ImageStore, posts PostImageRecorder, users UserImageRecorder, postCache *cache.PostCache, prom *observability.Prom) *UploadsHandler {
	return &UploadsHandler{
		store:     store,
		posts:     posts,
		users:     users,
		cache:     postCache,
		prom:      prom,
		publicURL: "/uploads/",
	}
}

// PostImage accepts one image for a post and records its public path.
func (h *UploadsHandler) PostImage(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	relPath, ok := h.saveUpload(ctx, "postagens")

	if !ok {
		return
	}

	err := h.posts.SetImage(ctx.Request.Context(), id, h.publicURL+relPath)

	if err != nil {
		// the record is gone, remove the file again so nothing partial remains
		_ = h.store.Remove(relPath)

		if errors.Is(err, post.ErrNotFound) {
			h.count("postagens", "failed")
			RespondNotFound(ctx, "Post not found")
			return
		}

		h.count("postagens", "failed")
		RespondInternal(ctx, "Could not store image")
		return
	}

	h.cache.Invalidate(ctx.Request.Context(), id)
	h.count("postagens", "stored")

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Image uploaded",
		"imagem":  h.publicURL + relPath,
	})
}

// UserImage accepts an avatar for a user; a user may only change their
// own image unless they are an administrator.
func (h *UploadsHandler) UserImage(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	callerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	callerRole, _ := middlewares.RoleFromContext(ctx)

	if callerID != id && callerRole != user.RoleAdministrator {
		RespondForbidden(ctx, "forbidden", "Cannot change another user's image")
		return
	}

	relPath, ok := h.saveUpload(ctx, "usuarios")

	if !ok {
		return
	}

	err := h.users.SetImage(ctx.Request.Context(), id, h.publicURL+relPath)

	if err != nil {
		_ = h.store.Remove(relPath)

		if errors.Is(err, user.ErrNotFound) {
			h.count("usuarios", "failed")
			RespondNotFound(ctx, "User not found")
			return
		}

		h.count("usuarios", "failed")
		RespondInternal(ctx, "Could not store image")
		return
	}

	h.count("usuarios", "stored")

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Image uploaded",
		"imagem":  h.publicURL + relPath,
	})
}

func (h *UploadsHandler) saveUpload(ctx *gin.Context, resource string) (string, bool) {
	fh, err := ctx.FormFile(uploadField)

	if err != nil {
		h.count(resource, "rejected")
		RespondBadRequest(ctx, "No image was sent", gin.H{"fields": []FieldError{
			{Field: uploadField, Rule: "required", Message: "is required"},
		}})
		return "", false
	}

	relPath, err := h.store.Save(resource, fh)

	if err != nil {
		switch {
		case errors.Is(err, upload.ErrUnsupportedType):
			h.count(resource, "rejected")
			RespondBadRequest(ctx, "Only jpg, jpeg and png images are allowed", nil)
		case errors.Is(err, upload.ErrTooLarge):
			h.count(resource, "rejected")
			RespondBadRequest(ctx, "Image exceeds the maximum allowed size", nil)
		default:
			h.count(resource, "failed")
			RespondInternal(ctx, "Could not store image")
		}
		return "", false
	}

	return relPath, true
}

func (h *UploadsHandler) count(resource, result string) {
	if h.prom != nil {
		h.prom.UploadsTotal.WithLabelValues(resource, result).Inc()
	}
}
