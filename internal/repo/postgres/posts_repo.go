package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"blogpress/internal/domain/post"
	"blogpress/internal/observability"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewPostsRepo(pool *pgxpool.Pool, prom *observability.Prom) *PostsRepo {
	return &PostsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *PostsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *PostsRepo) Create(ctx context.Context, req post.CreatePostRequest) (post.Post, error) {
	p := post.NewFromCreateRequest(req)

	err := r.observe("posts.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO posts(id, title, content, author, publication_date, image, created_at, updated_at)
			 VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
			p.ID, p.Title, p.Content, p.Author, p.PublicationDate, p.Image, p.CreatedAt, p.UpdatedAt)
		return err
	})

	if err != nil {
		return post.Post{}, err
	}

	return p, nil
}

// List returns one page plus the total row count for the filter, so the
// handler can report totals even for a page past the end.
func (r *PostsRepo) List(ctx context.Context, filter post.ListPostsFilter) ([]post.Post, int, error) {
	conds, args := filterConds(filter)

	countQuery := "SELECT COUNT(*) FROM posts" + conds

	total := 0

	err := r.observe("posts.count", func() error {
		return r.pool.QueryRow(ctx, countQuery, args...).Scan(&total)
	})

	if err != nil {
		return nil, 0, err
	}

	// stable ordering for pagination
	pageQuery := fmt.Sprintf(
		`SELECT id, title, content, author, publication_date, image, created_at, updated_at
		 FROM posts%s
		 ORDER BY publication_date DESC, id ASC
		 LIMIT $%d OFFSET $%d`,
		conds, len(args)+1, len(args)+2,
	)

	pageArgs := append(args, filter.Limit, filter.Offset())

	output := make([]post.Post, 0, filter.Limit)

	err = r.observe("posts.list", func() error {
		rows, err := r.pool.Query(ctx, pageQuery, pageArgs...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var p post.Post

			err = rows.Scan(&p.ID, &p.Title, &p.Content, &p.Author, &p.PublicationDate, &p.Image, &p.CreatedAt, &p.UpdatedAt)

			if err != nil {
				return err
			}

			output = append(output, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

// ListByAuthor filters on an exact author match, no paging.
func (r *PostsRepo) ListByAuthor(ctx context.Context, author string) ([]post.Post, error) {
	output := make([]post.Post, 0, 8)

	err := r.observe("posts.list_by_author", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, title, content, author, publication_date, image, created_at, updated_at
			 FROM posts
			 WHERE author = $1
			 ORDER BY publication_date DESC, id ASC`,
			author)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var p post.Post

			err = rows.Scan(&p.ID, &p.Title, &p.Content, &p.Author, &p.PublicationDate, &p.Image, &p.CreatedAt, &p.UpdatedAt)

			if err != nil {
				return err
			}

			output = append(output, p)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *PostsRepo) GetByID(ctx context.Context, id string) (post.Post, error) {
	var p post.Post

	err := r.observe("posts.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, title, content, author, publication_date, image, created_at, updated_at
			 FROM posts WHERE id = $1`, id).
			Scan(&p.ID, &p.Title, &p.Content, &p.Author, &p.PublicationDate, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}

		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) Update(ctx context.Context, id string, req post.UpdatePostRequest) (post.Post, error) {
	var title *string

	if req.Title != nil {
		lowered := strings.ToLower(*req.Title)
		title = &lowered
	}

	var pubDate interface{}

	if req.PublicationDate != nil {
		parsed, err := post.ParseDate(*req.PublicationDate)

		if err != nil {
			return post.Post{}, err
		}

		pubDate = parsed
	}

	var p post.Post

	err := r.observe("posts.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE posts
				SET title = COALESCE($2, title),
						content = COALESCE($3, content),
						author = COALESCE($4, author),
						publication_date = COALESCE($5, publication_date),
						image = COALESCE($6, image),
						updated_at = NOW()
			WHERE id = $1
			RETURNING id, title, content, author, publication_date, image, created_at, updated_at`,
			id, title, req.Content, req.Author, pubDate, req.Image,
		).Scan(&p.ID, &p.Title, &p.Content, &p.Author, &p.PublicationDate, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return post.Post{}, post.ErrNotFound
		}

		return post.Post{}, err
	}

	return p, nil
}

func (r *PostsRepo) Delete(ctx context.Context, id string) error {
	var tag int64

	err := r.observe("posts.delete", func() error {
		res, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)

		if err != nil {
			return err
		}

		tag = res.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if tag == 0 {
		return post.ErrNotFound
	}

	return nil
}

// SetImage records an uploaded image path on the post.
func (r *PostsRepo) SetImage(ctx context.Context, id string, path string) error {
	var tag int64

	err := r.observe("posts.set_image", func() error {
		res, err := r.pool.Exec(ctx,
			`UPDATE posts SET image = $2, updated_at = NOW() WHERE id = $1`, id, path)

		if err != nil {
			return err
		}

		tag = res.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if tag == 0 {
		return post.ErrNotFound
	}

	return nil
}

func filterConds(filter post.ListPostsFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if filter.Author != nil {
		args = append(args, *filter.Author)
		conds = append(conds, fmt.Sprintf("author = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}
