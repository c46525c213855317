package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogpress/internal/domain/post"
	"blogpress/internal/http/handlers"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// Fake repository implementation of the handlers.PostsStore interface

type fakePostsRepo struct {
	createFn       func(ctx context.Context, req post.CreatePostRequest) (post.Post, error)
	listFn         func(ctx context.Context, filter post.ListPostsFilter) ([]post.Post, int, error)
	listByAuthorFn func(ctx context.Context, author string) ([]post.Post, error)
	getFn          func(ctx context.Context, id string) (post.Post, error)
	updateFn       func(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error)
	deleteFn       func(ctx context.Context, id string) error
}

func (f *fakePostsRepo) Create(ctx context.Context, req post.CreatePostRequest) (post.Post, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return post.Post{}, nil
}

func (f *fakePostsRepo) List(ctx context.Context, filter post.ListPostsFilter) ([]post.Post, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, 0, nil
}

func (f *fakePostsRepo) ListByAuthor(ctx context.Context, author string) ([]post.Post, error) {
	if f.listByAuthorFn != nil {
		return f.listByAuthorFn(ctx, author)
	}
	return []post.Post{}, nil
}

func (f *fakePostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return post.Post{}, nil
}

func (f *fakePostsRepo) Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return post.Post{}, nil
}

func (f *fakePostsRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h)

	return r
}

func TestCreatePostHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakePostsRepo)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{
				"titulo": "Minha Primeira Postagem",
				"conteudo": "conteudo longo o suficiente",
				"autor": "Machado de Assis"
			}`,
			repoSetUp: func(f *fakePostsRepo) {
				f.createFn = func(ctx context.Context, req post.CreatePostRequest) (post.Post, error) {
					created := post.NewFromCreateRequest(req)
					created.CreatedAt = now
					created.UpdatedAt = now
					return created, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "validation_error_missing_content",
			body: `{"titulo": "valid title", "autor": "Machado de Assis"}`,
			repoSetUp: func(f *fakePostsRepo) {
				// invalid payload, the repo must not be reached
				f.createFn = func(ctx context.Context, req post.CreatePostRequest) (post.Post, error) {
					t.Fatal("repo called for invalid payload")
					return post.Post{}, nil
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{
				"titulo": "Minha Primeira Postagem",
				"conteudo": "conteudo longo o suficiente",
				"autor": "Machado de Assis"
			}`,
			repoSetUp: func(f *fakePostsRepo) {
				f.createFn = func(ctx context.Context, req post.CreatePostRequest) (post.Post, error) {
					return post.Post{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePostsRepo{}

			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewPostsHandler(repo, nil)

			r := setupRouter(http.MethodPost, "/postagens", h.CreatePost)

			req := httptest.NewRequest(http.MethodPost, "/postagens", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestCreatePostHandler_TitleIsLowerCased(t *testing.T) {
	repo := &fakePostsRepo{
		createFn: func(ctx context.Context, req post.CreatePostRequest) (post.Post, error) {
			return post.NewFromCreateRequest(req), nil
		},
	}

	h := handlers.NewPostsHandler(repo, nil)
	r := setupRouter(http.MethodPost, "/postagens", h.CreatePost)

	body := `{"titulo": "UPPER And Mixed", "conteudo": "conteudo longo o suficiente", "autor": "Machado de Assis"}`
	req := httptest.NewRequest(http.MethodPost, "/postagens", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var created post.Post
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if created.Title != strings.ToLower("UPPER And Mixed") {
		t.Fatalf("expected lower-cased title, got %q", created.Title)
	}
}

func TestCreatePostHandler_MissingContentNamesField(t *testing.T) {
	h := handlers.NewPostsHandler(&fakePostsRepo{}, nil)
	r := setupRouter(http.MethodPost, "/postagens", h.CreatePost)

	body := `{"titulo": "valid title", "autor": "Machado de Assis"}`
	req := httptest.NewRequest(http.MethodPost, "/postagens", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp bindErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	found := false
	for _, fe := range resp.Error.Details.Fields {
		if fe.Field == "conteudo" && fe.Rule == "required" {
			found = true
		}
	}

	if !found {
		t.Fatalf("expected a field error naming conteudo, got %+v", resp.Error.Details.Fields)
	}
}

type listResponse struct {
	Total      int         `json:"total"`
	TotalPages int         `json:"totalPages"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Items      []post.Post `json:"items"`
	NextPage   *string     `json:"nextPage"`
}

func TestListPostsHandler_Pagination(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		total          int
		pageItems      int
		wantPage       int
		wantTotalPages int
		wantNextPage   bool
	}{
		{
			name:           "first_of_three_pages",
			url:            "/postagens?page=1&limit=10",
			total:          25,
			pageItems:      10,
			wantPage:       1,
			wantTotalPages: 3,
			wantNextPage:   true,
		},
		{
			name:           "last_page_has_no_next",
			url:            "/postagens?page=3&limit=10",
			total:          25,
			pageItems:      5,
			wantPage:       3,
			wantTotalPages: 3,
			wantNextPage:   false,
		},
		{
			name:           "page_past_the_end_is_empty_not_error",
			url:            "/postagens?page=9&limit=10",
			total:          25,
			pageItems:      0,
			wantPage:       9,
			wantTotalPages: 3,
			wantNextPage:   false,
		},
		{
			name:           "defaults_applied",
			url:            "/postagens",
			total:          0,
			pageItems:      0,
			wantPage:       1,
			wantTotalPages: 0,
			wantNextPage:   false,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakePostsRepo{
				listFn: func(ctx context.Context, filter post.ListPostsFilter) ([]post.Post, int, error) {
					items := make([]post.Post, tt.pageItems)
					for i := range items {
						items[i] = post.Post{ID: uuid.NewString(), Title: "t", Content: "c", Author: "a"}
					}
					return items, tt.total, nil
				},
			}

			h := handlers.NewPostsHandler(repo, nil)
			r := setupRouter(http.MethodGet, "/postagens", h.ListPosts)

			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
			}

			var resp listResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}

			if resp.Page != tt.wantPage {
				t.Fatalf("page: got %d want %d", resp.Page, tt.wantPage)
			}
			if resp.TotalPages != tt.wantTotalPages {
				t.Fatalf("totalPages: got %d want %d", resp.TotalPages, tt.wantTotalPages)
			}
			if resp.Total != tt.total {
				t.Fatalf("total: got %d want %d", resp.Total, tt.total)
			}
			if len(resp.Items) != tt.pageItems {
				t.Fatalf("items: got %d want %d", len(resp.Items), tt.pageItems)
			}
			if tt.wantNextPage && resp.NextPage == nil {
				t.Fatal("expected nextPage to be set")
			}
			if !tt.wantNextPage && resp.NextPage != nil {
				t.Fatalf("expected nextPage to be null, got %q", *resp.NextPage)
			}
		})
	}
}

func TestListPostsHandler_ByAuthorEmptyIsNotFound(t *testing.T) {
	repo := &fakePostsRepo{
		listByAuthorFn: func(ctx context.Context, author string) ([]post.Post, error) {
			return []post.Post{}, nil
		},
	}

	h := handlers.NewPostsHandler(repo, nil)
	r := setupRouter(http.MethodGet, "/postagens", h.ListPosts)

	req := httptest.NewRequest(http.MethodGet, "/postagens?autor=Machado+de+Assis", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404, body=%s", w.Code, w.Body.String())
	}
}

func TestGetPostByIDHandler(t *testing.T) {
	known := uuid.NewString()

	repo := &fakePostsRepo{
		getFn: func(ctx context.Context, id string) (post.Post, error) {
			if id == known {
				return post.Post{ID: id, Title: "t", Content: "c", Author: "a"}, nil
			}
			return post.Post{}, post.ErrNotFound
		},
	}

	h := handlers.NewPostsHandler(repo, nil)
	r := setupRouter(http.MethodGet, "/postagens/:id", h.GetPostByID)

	tests := []struct {
		name           string
		id             string
		wantStatusCode int
	}{
		{"found", known, http.StatusOK},
		{"not_found", uuid.NewString(), http.StatusNotFound},
		{"invalid_id", "not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/postagens/"+tt.id, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestUpdatePostHandler_NotFound(t *testing.T) {
	repo := &fakePostsRepo{
		updateFn: func(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
			return post.Post{}, post.ErrNotFound
		},
	}

	h := handlers.NewPostsHandler(repo, nil)
	r := setupRouter(http.MethodPut, "/postagens/:id", h.UpdatePost)

	req := httptest.NewRequest(http.MethodPut, "/postagens/"+uuid.NewString(), bytes.NewBufferString(`{"titulo":"novo titulo"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("got status %d, want 404, body=%s", w.Code, w.Body.String())
	}
}

func TestDeletePostHandler(t *testing.T) {
	known := uuid.NewString()

	repo := &fakePostsRepo{
		deleteFn: func(ctx context.Context, id string) error {
			if id == known {
				return nil
			}
			return post.ErrNotFound
		},
	}

	h := handlers.NewPostsHandler(repo, nil)
	r := setupRouter(http.MethodDelete, "/postagens/:id", h.DeletePost)

	tests := []struct {
		name           string
		id             string
		wantStatusCode int
	}{
		{"deleted", known, http.StatusOK},
		{"not_found", uuid.NewString(), http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/postagens/"+tt.id, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}
