package author

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const selectAuthor = `
	SELECT id, COALESCE(email, ''), COALESCE(phone_number, ''), first_name, last_name, canonical_name,
	       COALESCE(post_code, ''), COALESCE(house_num, 0), COALESCE(street, ''), COALESCE(city, ''), COALESCE(country, '')
	FROM book_author_data`

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func scanAuthor(row pgx.Row) (Author, error) {
	var a Author
	err := row.Scan(
		&a.ID, &a.Email, &a.PhoneNumber, &a.Name.FirstName, &a.Name.LastName, &a.CanonicalName,
		&a.Address.PostCode, &a.Address.HouseNumber, &a.Address.Street, &a.Address.City, &a.Address.Country,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Author{}, ErrNotFound
		}
		return Author{}, err
	}
	return a, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepo) Create(ctx context.Context, a *Author) (int64, error) {
	const sql = `
		INSERT INTO book_author_data (email, phone_number, first_name, last_name, canonical_name,
		                              post_code, house_num, street, city, country)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5, NULLIF($6, ''), NULLIF($7, 0), NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''))
		RETURNING id`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var id int64
	err := r.db.QueryRow(timeoutCtx, sql,
		a.Email, a.PhoneNumber, a.Name.FirstName, a.Name.LastName, a.CanonicalName,
		a.Address.PostCode, a.Address.HouseNumber, a.Address.Street, a.Address.City, a.Address.Country,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteError(err)
	}
	return id, nil
}

func (r *PostgresRepo) Update(ctx context.Context, a *Author) error {
	const sql = `
		UPDATE book_author_data
		SET email = NULLIF($1, ''), phone_number = NULLIF($2, ''), first_name = $3, last_name = $4,
		    canonical_name = $5, post_code = NULLIF($6, ''), house_num = NULLIF($7, 0),
		    street = NULLIF($8, ''), city = NULLIF($9, ''), country = NULLIF($10, '')
		WHERE id = $11`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, sql,
		a.Email, a.PhoneNumber, a.Name.FirstName, a.Name.LastName, a.CanonicalName,
		a.Address.PostCode, a.Address.HouseNumber, a.Address.Street, a.Address.City, a.Address.Country,
		a.ID,
	)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Author, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanAuthor(r.db.QueryRow(timeoutCtx, selectAuthor+` WHERE id = $1`, id))
}

func (r *PostgresRepo) GetByCanonicalName(ctx context.Context, name string) (Author, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return scanAuthor(r.db.QueryRow(timeoutCtx, selectAuthor+` WHERE lower(canonical_name) = lower($1) LIMIT 1`, name))
}

func (r *PostgresRepo) ExistsByCanonicalName(ctx context.Context, name string, excludeID int64) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM book_author_data WHERE lower(canonical_name) = lower($1) AND id <> $2)`
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(timeoutCtx, sql, name, excludeID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepo) List(ctx context.Context, limit, offset int) ([]Author, int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int64
	if err := r.db.QueryRow(timeoutCtx, `SELECT COUNT(*) FROM book_author_data`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(timeoutCtx, selectAuthor+` ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM book_author_data WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) CountBooks(ctx context.Context, authorID int64) (int, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var n int
	err := r.db.QueryRow(timeoutCtx, `SELECT COUNT(*) FROM books WHERE author_id = $1`, authorID).Scan(&n)
	return n, err
}
