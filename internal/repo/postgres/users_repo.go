package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blogpress/internal/domain/user"
	"blogpress/internal/observability"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrEmailAlreadyUsed = errors.New("email already used")

const userColumns = `id, name, email, password_hash, role, image, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create inserts a new user. The password arrives already hashed; the
// unique index on email turns races into ErrEmailAlreadyUsed.
func (r *UsersRepo) Create(ctx context.Context, name, email, passwordHash, role string) (user.User, error) {
	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users(id, name, email, password_hash, role, created_at, updated_at)
			 VALUES($1,$2,$3,$4,$5,$6,$7)`,
			u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt)
		return err
	})

	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, ErrEmailAlreadyUsed
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_email", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email).
			Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User

	err := r.observe("users.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id).
			Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}

	return u, nil
}

// Update applies a partial profile change. The password pointer, when
// set, must already be hashed by the caller.
func (r *UsersRepo) Update(ctx context.Context, id string, name, email, passwordHash, role *string) (user.User, error) {
	var u user.User

	err := r.observe("users.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE users
				SET name = COALESCE($2, name),
						email = COALESCE($3, email),
						password_hash = COALESCE($4, password_hash),
						role = COALESCE($5, role),
						updated_at = NOW()
			WHERE id = $1
			RETURNING `+userColumns,
			id, name, email, passwordHash, role,
		).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Image, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		if isUniqueViolation(err) {
			return user.User{}, ErrEmailAlreadyUsed
		}

		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("users.delete", func() error {
		res, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)

		if err != nil {
			return err
		}

		affected = res.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return user.ErrNotFound
	}

	return nil
}

// Filter lists users with optional substring matching on name/email and
// an exact match on role.
func (r *UsersRepo) Filter(ctx context.Context, f user.Filter) ([]user.User, error) {
	var conds []string
	var args []interface{}

	if f.Name != nil {
		args = append(args, "%"+*f.Name+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	if f.Email != nil {
		args = append(args, "%"+*f.Email+"%")
		conds = append(conds, fmt.Sprintf("email ILIKE $%d", len(args)))
	}

	if f.Role != nil {
		args = append(args, *f.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}

	query := `SELECT ` + userColumns + ` FROM users`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY created_at ASC, id ASC"

	output := make([]user.User, 0, 16)

	err := r.observe("users.filter", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var u user.User

			err = rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Image, &u.CreatedAt, &u.UpdatedAt)

			if err != nil {
				return err
			}

			output = append(output, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

// SetImage records an uploaded avatar path on the user.
func (r *UsersRepo) SetImage(ctx context.Context, id string, path string) error {
	var affected int64

	err := r.observe("users.set_image", func() error {
		res, err := r.pool.Exec(ctx,
			`UPDATE users SET image = $2, updated_at = NOW() WHERE id = $1`, id, path)

		if err != nil {
			return err
		}

		affected = res.RowsAffected()
		return nil
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return user.ErrNotFound
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
