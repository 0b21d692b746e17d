package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

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

const selectBook = `
	SELECT b.id, b.author_id, b.title, COALESCE(b.author_canonical_name, ''), COALESCE(b.genres, ''),
	       b.publication, b.last_update_time
	FROM books b`

const insertBook = `
	INSERT INTO books (author_id, title, author_canonical_name, genres, publication, last_update_time)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5, NOW())
	RETURNING id`

func scanBook(row pgx.Row, extra ...any) (Book, error) {
	var b Book
	dest := append([]any{
		&b.ID, &b.AuthorID, &b.Title, &b.AuthorCanonicalName, &b.Genres,
		&b.Publication.Time, &b.LastUpdateTime,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func collectBooks(rows pgx.Rows) ([]Book, error) {
	defer rows.Close()
	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) (int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var id int64
	err := r.db.QueryRow(timeoutCtx, insertBook,
		b.AuthorID, b.Title, b.AuthorCanonicalName, b.Genres, b.Publication.Time,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresRepo) CreateBatch(ctx context.Context, books []Book) ([]int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(timeoutCtx)

	batch := &pgx.Batch{}
	for _, b := range books {
		batch.Queue(insertBook, b.AuthorID, b.Title, b.AuthorCanonicalName, b.Genres, b.Publication.Time)
	}
	results := tx.SendBatch(timeoutCtx, batch)
	ids := make([]int64, 0, len(books))
	for i := range books {
		var id int64
		if err := results.QueryRow().Scan(&id); err != nil {
			_ = results.Close()
			return nil, fmt.Errorf("insert book %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	if err := results.Close(); err != nil {
		return nil, err
	}
	if err := tx.Commit(timeoutCtx); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresRepo) Update(ctx context.Context, b *Book) error {
	const sql = `
		UPDATE books
		SET author_id = $2, title = $3, author_canonical_name = $4, genres = NULLIF($5, ''),
		    publication = $6, last_update_time = NOW()
		WHERE id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, sql,
		b.ID, b.AuthorID, b.Title, b.AuthorCanonicalName, b.Genres, b.Publication.Time,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int64) (Book, error) {
	const sql = `
		SELECT b.id, b.author_id, b.title, COALESCE(b.author_canonical_name, ''), COALESCE(b.genres, ''),
		       b.publication, b.last_update_time, COALESCE(a.canonical_name, '')
		FROM books b
		LEFT JOIN book_author_data a ON a.id = b.author_id
		WHERE b.id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var name string
	b, err := scanBook(r.db.QueryRow(timeoutCtx, sql, id), &name)
	if err != nil {
		return Book{}, err
	}
	b.AuthorName = name
	return b, nil
}

func (r *PostgresRepo) FindByTitleAndAuthor(ctx context.Context, title, canonicalName string) (Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	return scanBook(r.db.QueryRow(timeoutCtx,
		selectBook+` WHERE b.title = $1 AND lower(b.author_canonical_name) = lower($2) ORDER BY b.id LIMIT 1`,
		title, canonicalName,
	))
}

func (r *PostgresRepo) List(ctx context.Context, f ListFilter) ([]Book, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if f.AuthorID != nil {
		clauses = append(clauses, fmt.Sprintf("b.author_id = $%d", argn))
		args = append(args, *f.AuthorID)
		argn++
	}
	for _, title := range f.TitleContains {
		clauses = append(clauses, fmt.Sprintf("lower(b.title) LIKE $%d", argn))
		args = append(args, "%"+strings.ToLower(title)+"%")
		argn++
	}
	for _, pattern := range f.AuthorNameLike {
		clauses = append(clauses, fmt.Sprintf("lower(b.author_canonical_name) LIKE lower($%d)", argn))
		args = append(args, pattern)
		argn++
	}
	where := " WHERE " + strings.Join(clauses, " AND ")

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int64
	if err := r.db.QueryRow(timeoutCtx, "SELECT COUNT(*) FROM books b"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := fmt.Sprintf("%s%s ORDER BY b.id LIMIT $%d OFFSET $%d", selectBook, where, argn, argn+1)
	rows, err := r.db.Query(timeoutCtx, dataSQL, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectBooks(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresRepo) ListForReport(ctx context.Context, authorID *int64) ([]Book, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		rows pgx.Rows
		err  error
	)
	if authorID == nil {
		rows, err = r.db.Query(timeoutCtx, selectBook+` ORDER BY b.id`)
	} else {
		rows, err = r.db.Query(timeoutCtx, selectBook+` WHERE b.author_id = $1 ORDER BY b.id`, *authorID)
	}
	if err != nil {
		return nil, err
	}
	return collectBooks(rows)
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
