package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quickjob/internal/database"
	"quickjob/internal/domain/city"
	"quickjob/internal/domain/position"
)

var ErrPositionNotFound = errors.New("position not found")

type PositionRepository interface {
	CountActive(ctx context.Context, search string) (int, error)
	ListActive(ctx context.Context, search string, limit, offset int) ([]position.Position, error)
	FindActiveByID(ctx context.Context, positionID int64) (position.Position, error)
	FindActiveBySlug(ctx context.Context, slug string) (position.Position, error)
	ListCities(ctx context.Context, positionID int64) ([]city.City, error)
	ListCitiesBySlug(ctx context.Context, slug string) ([]city.City, error)
	IsOpenInCity(ctx context.Context, positionID, cityID int64) (bool, error)
	ListTags(ctx context.Context, positionID int64) ([]position.Tag, error)
}

type PostgresPositionRepository struct {
	db database.DB
}

func NewPostgresPositionRepository(db database.DB) *PostgresPositionRepository {
	return &PostgresPositionRepository{db: db}
}

const positionColumns = `p.id, p.slug, p.title, p.content, p.lead, p.img_src, p.img_alt,
		 COALESCE(cat.category_name, ''), p.is_active`

func (r *PostgresPositionRepository) CountActive(ctx context.Context, search string) (int, error) {
	var n int
	row := r.db.QueryRow(ctx,
		`SELECT COUNT(1) FROM job_positions p
		 WHERE p.is_active IS TRUE AND lower(p.title) LIKE $1 ESCAPE '\'`,
		ContainsPattern(search),
	)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count active positions: %w", err)
	}
	return n, nil
}

func (r *PostgresPositionRepository) ListActive(ctx context.Context, search string, limit, offset int) ([]position.Position, error) {
	if limit <= 0 {
		limit = position.PageSize
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+positionColumns+`
		 FROM job_positions p
		 LEFT JOIN categories cat ON cat.id = p.id_category
		 WHERE p.is_active IS TRUE AND lower(p.title) LIKE $1 ESCAPE '\'
		 ORDER BY p.title DESC, p.id DESC
		 LIMIT $2 OFFSET $3`,
		ContainsPattern(search), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list active positions: %w", err)
	}
	defer rows.Close()

	out := make([]position.Position, 0, limit)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresPositionRepository) FindActiveByID(ctx context.Context, positionID int64) (position.Position, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+positionColumns+`
		 FROM job_positions p
		 LEFT JOIN categories cat ON cat.id = p.id_category
		 WHERE p.is_active IS TRUE AND p.id = $1`,
		positionID,
	)
	p, err := scanPosition(row)
	if err != nil {
		if isNoRows(err) {
			return position.Position{}, ErrPositionNotFound
		}
		return position.Position{}, fmt.Errorf("find position %d: %w", positionID, err)
	}
	return p, nil
}

func (r *PostgresPositionRepository) FindActiveBySlug(ctx context.Context, slug string) (position.Position, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+positionColumns+`
		 FROM job_positions p
		 LEFT JOIN categories cat ON cat.id = p.id_category
		 WHERE p.is_active IS TRUE AND p.slug = $1`,
		slug,
	)
	p, err := scanPosition(row)
	if err != nil {
		if isNoRows(err) {
			return position.Position{}, ErrPositionNotFound
		}
		return position.Position{}, fmt.Errorf("find position %q: %w", slug, err)
	}
	return p, nil
}

func (r *PostgresPositionRepository) ListCities(ctx context.Context, positionID int64) ([]city.City, error) {
	return r.listCities(ctx,
		`SELECT c.id, c.city_name, COALESCE(co.country_abbreviation, '')
		 FROM job_position_cities jpc
		 JOIN cities c ON c.id = jpc.id_city
		 LEFT JOIN countries co ON co.id = c.id_country
		 WHERE jpc.id_job_position = $1
		 ORDER BY c.city_name ASC`,
		positionID,
	)
}

func (r *PostgresPositionRepository) ListCitiesBySlug(ctx context.Context, slug string) ([]city.City, error) {
	return r.listCities(ctx,
		`SELECT c.id, c.city_name, COALESCE(co.country_abbreviation, '')
		 FROM job_position_cities jpc
		 JOIN job_positions p ON p.id = jpc.id_job_position
		 JOIN cities c ON c.id = jpc.id_city
		 LEFT JOIN countries co ON co.id = c.id_country
		 WHERE p.slug = $1
		 ORDER BY c.city_name ASC`,
		slug,
	)
}

func (r *PostgresPositionRepository) listCities(ctx context.Context, query string, arg any) ([]city.City, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list position cities: %w", err)
	}
	defer rows.Close()

	out := make([]city.City, 0)
	for rows.Next() {
		var c city.City
		if err := rows.Scan(&c.ID, &c.Name, &c.CountryAbbreviation); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresPositionRepository) IsOpenInCity(ctx context.Context, positionID, cityID int64) (bool, error) {
	var exists bool
	row := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM job_position_cities WHERE id_job_position = $1 AND id_city = $2)`,
		positionID, cityID,
	)
	if err := row.Scan(&exists); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("position city lookup: %w", err)
	}
	return exists, nil
}

func (r *PostgresPositionRepository) ListTags(ctx context.Context, positionID int64) ([]position.Tag, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.tag_name
		 FROM job_positions_tags jpt
		 JOIN tags t ON t.id = jpt.id_tags
		 WHERE jpt.id_job_position = $1
		 ORDER BY t.tag_name ASC`,
		positionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list position tags: %w", err)
	}
	defer rows.Close()

	out := make([]position.Tag, 0)
	for rows.Next() {
		var t position.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanPosition(row database.Row) (position.Position, error) {
	var p position.Position
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Content, &p.Lead, &p.ImgSrc, &p.ImgAlt, &p.CategoryName, &p.IsActive)
	return p, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern builds a lower-cased LIKE pattern matching any title that
// contains search as a literal substring.
func ContainsPattern(search string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(search))) + "%"
}
