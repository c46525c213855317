package post

import (
	"errors"
	"time"
)

type Post struct {
	ID              string    `json:"id"`
	Title           string    `json:"titulo"`
	Content         string    `json:"conteudo"`
	Author          string    `json:"autor"`
	PublicationDate time.Time `json:"data_publicacao"`
	Image           string    `json:"imagem,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("post not found")

type CreatePostRequest struct {
	Title           string `json:"titulo" binding:"required,min=3,max=200"`
	Content         string `json:"conteudo" binding:"required,min=10"`
	Author          string `json:"autor" binding:"required,min=10,max=120"`
	PublicationDate string `json:"data_publicacao" binding:"omitempty,datetime=2006-01-02"`
	Image           string `json:"imagem" binding:"omitempty,url"`
}

// every field optional, partial update
type UpdatePostRequest struct {
	Title           *string `json:"titulo" binding:"omitempty,min=3,max=200"`
	Content         *string `json:"conteudo" binding:"omitempty,min=10"`
	Author          *string `json:"autor" binding:"omitempty,min=10,max=120"`
	PublicationDate *string `json:"data_publicacao" binding:"omitempty,datetime=2006-01-02"`
	Image           *string `json:"imagem" binding:"omitempty,url"`
}

// with pointers if optional, it will be nil
type ListPostsFilter struct {
	Author *string
	Page   int
	Limit  int
}

func (f ListPostsFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
