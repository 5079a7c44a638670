package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quickjob/internal/database"
	"quickjob/internal/domain/city"

	"github.com/jackc/pgx/v5"
)

var ErrCityNotFound = errors.New("city not found")

type CityRepository interface {
	FindByID(ctx context.Context, cityID int64) (city.City, error)
}

type PostgresCityRepository struct {
	db database.DB
}

func NewPostgresCityRepository(db database.DB) *PostgresCityRepository {
	return &PostgresCityRepository{db: db}
}

func (r *PostgresCityRepository) FindByID(ctx context.Context, cityID int64) (city.City, error) {
	var c city.City
	row := r.db.QueryRow(ctx,
		`SELECT c.id, c.city_name, COALESCE(co.country_abbreviation, '')
		 FROM cities c
		 LEFT JOIN countries co ON co.id = c.id_country
		 WHERE c.id = $1`,
		cityID,
	)
	if err := row.Scan(&c.ID, &c.Name, &c.CountryAbbreviation); err != nil {
		if isNoRows(err) {
			return city.City{}, ErrCityNotFound
		}
		return city.City{}, fmt.Errorf("find city %d: %w", cityID, err)
	}
	return c, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}
