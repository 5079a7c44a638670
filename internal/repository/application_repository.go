package repository

import (
	"context"
	"errors"
	"fmt"

	"quickjob/internal/database"
	"quickjob/internal/domain/application"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateApplication is returned when the storage-level uniqueness
// constraint on (email, city, position) rejects an insert.
var ErrDuplicateApplication = errors.New("duplicate application")

type ApplicationRepository interface {
	ExistsForCandidate(ctx context.Context, email string, cityID, positionID int64) (bool, error)
	Begin(ctx context.Context) (ApplicationTx, error)
}

// ApplicationTx scopes the inserts of one submission. Callers must end it
// with exactly one Commit or Rollback.
type ApplicationTx interface {
	Insert(ctx context.Context, app application.Application) (int64, error)
	InsertFile(ctx context.Context, f application.File) (int64, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type PostgresApplicationRepository struct {
	db database.DB
}

func NewPostgresApplicationRepository(db database.DB) *PostgresApplicationRepository {
	return &PostgresApplicationRepository{db: db}
}

func (r *PostgresApplicationRepository) ExistsForCandidate(ctx context.Context, email string, cityID, positionID int64) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM application
			WHERE email = $1 AND id_city = $2 AND id_job_position = $3
		)`,
		email, cityID, positionID,
	)
	if err := row.Scan(&exists); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("duplicate application check: %w", err)
	}
	return exists, nil
}

func (r *PostgresApplicationRepository) Begin(ctx context.Context) (ApplicationTx, error) {
	if r == nil || r.db == nil {
		return nil, database.ErrNilDB
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin application tx: %w", err)
	}
	return &postgresApplicationTx{tx: tx}, nil
}

type postgresApplicationTx struct {
	tx database.Tx
}

func (t *postgresApplicationTx) Insert(ctx context.Context, app application.Application) (int64, error) {
	var id int64
	row := t.tx.QueryRow(ctx,
		`INSERT INTO application
			(first_name, last_name, email, phone_number, linkedin, why_you, id_job_position, id_city)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		app.FirstName,
		app.LastName,
		app.Email,
		app.PhoneNumber,
		app.LinkedIn,
		app.WhyYou,
		app.PositionID,
		app.CityID,
	)
	if err := row.Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateApplication
		}
		return 0, fmt.Errorf("insert application: %w", err)
	}
	return id, nil
}

func (t *postgresApplicationTx) InsertFile(ctx context.Context, f application.File) (int64, error) {
	var id int64
	row := t.tx.QueryRow(ctx,
		`INSERT INTO application_files (file_src, id_application) VALUES ($1, $2) RETURNING id`,
		f.FileSrc, f.ApplicationID,
	)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("insert application file: %w", err)
	}
	return id, nil
}

func (t *postgresApplicationTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *postgresApplicationTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
