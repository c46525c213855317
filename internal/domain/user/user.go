package user

import (
	"errors"
	"time"
)

const (
	RoleAdministrator = "administrator"
	RoleAuthor        = "author"
	RoleReader        = "reader"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"nome"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         string    `json:"papel"`
	Image        string    `json:"imagem,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("user not found")

type RegisterRequest struct {
	Name     string `json:"nome" binding:"required,min=1,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required,min=8,passwd"`
	Role     string `json:"papel" binding:"omitempty,oneof=administrator author reader"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"senha" binding:"required,min=8"`
}

// partial profile update
type UpdateUserRequest struct {
	Name     *string `json:"nome" binding:"omitempty,min=1,max=120"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"senha" binding:"omitempty,min=8,passwd"`
	Role     *string `json:"papel" binding:"omitempty,oneof=administrator author reader"`
}

type UpdateRoleRequest struct {
	Role string `json:"papel" binding:"required,oneof=administrator author reader"`
}

// optional substring match on name/email, exact match on role
type Filter struct {
	Name  *string
	Email *string
	Role  *string
}
