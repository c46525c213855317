package handlers

import (
	"context"
	"errors"
	"net/http"

	"blogpress/internal/domain/user"
	"blogpress/internal/http/middlewares"
	"blogpress/internal/repo/postgres"
	"blogpress/internal/security"

	"github.com/gin-gonic/gin"
)

type UsersStore interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Update(ctx context.Context, id string, name, email, passwordHash, role *string) (user.User, error)
	Delete(ctx context.Context, id string) error
	Filter(ctx context.Context, f user.Filter) ([]user.User, error)
}

// Keep token issuing behind an interface so tests can fake it.
type TokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, error)
}

type UsersHandler struct {
	repo UsersStore
	jwt  TokenIssuer
}

func NewUsersHandler(repo UsersStore, jwt TokenIssuer) *UsersHandler {
	return &UsersHandler{
		repo: repo,
		jwt:  jwt,
	}
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	role := req.Role

	if role == "" {
		role = user.RoleReader
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not register user")
		return
	}

	created, err := h.repo.Create(ctx.Request.Context(), req.Name, req.Email, hash, role)

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already registered.", nil)
			return
		}

		RespondInternal(ctx, "Could not register user")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// Login deliberately answers unknown emails and wrong passwords with
// the same response, so the two cases cannot be told apart.
func (h *UsersHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	found, err := h.repo.GetByEmail(ctx.Request.Context(), req.Email)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = security.CheckPassword(found.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	token, err := h.jwt.GenerateAccessToken(found.ID, found.Email, found.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

// UpdateUser lets a user edit their own profile; administrators may
// edit anyone. Role changes stay admin-only (see UpdateRole).
func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
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
		RespondForbidden(ctx, "forbidden", "Cannot edit another user's profile")
		return
	}

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Role != nil && callerRole != user.RoleAdministrator {
		RespondForbidden(ctx, "forbidden", "Only administrators can change roles")
		return
	}

	var passwordHash *string

	if req.Password != nil {
		hash, err := security.HashPassword(*req.Password)

		if err != nil {
			RespondInternal(ctx, "Could not update user")
			return
		}

		passwordHash = &hash
	}

	updated, err := h.repo.Update(ctx.Request.Context(), id, req.Name, req.Email, passwordHash, req.Role)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, postgres.ErrEmailAlreadyUsed):
			RespondError(ctx, http.StatusBadRequest, "email_taken", "Email is already registered.", nil)
		default:
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// UpdateRole is the admin-only role management endpoint.
func (h *UsersHandler) UpdateRole(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	var req user.UpdateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	updated, err := h.repo.Update(ctx.Request.Context(), id, nil, nil, nil, &req.Role)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not update role")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	var f user.Filter

	if v := ctx.Query("nome"); v != "" {
		f.Name = &v
	}

	if v := ctx.Query("email"); v != "" {
		f.Email = &v
	}

	if v := ctx.Query("papel"); v != "" {
		if v != user.RoleAdministrator && v != user.RoleAuthor && v != user.RoleReader {
			RespondBadRequest(ctx, "Invalid role filter", gin.H{"fields": []FieldError{
				{Field: "papel", Rule: "oneof", Message: "must be one of administrator, author, reader"},
			}})
			return
		}
		f.Role = &v
	}

	users, err := h.repo.Filter(ctx.Request.Context(), f)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	// an empty filter result is a valid empty list, not an error
	ctx.JSON(http.StatusOK, gin.H{"items": users, "count": len(users)})
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	id, ok := pathID(ctx)

	if !ok {
		return
	}

	err := h.repo.Delete(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
