package seeder

import (
	"context"

	"quickjob/internal/database"
)

type ReferenceSeeder struct{}

func (ReferenceSeeder) Name() string { return "reference" }

func (ReferenceSeeder) Run(ctx context.Context, db database.DB) error {
	if err := requireColumns(ctx, db, "cities", "id", "city_name", "id_country"); err != nil {
		return err
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, name := range []string{"Engineering", "Design", "Operations"} {
			if _, err := tx.Exec(ctx,
				`INSERT INTO categories (category_name) VALUES ($1) ON CONFLICT (category_name) DO NOTHING`,
				name,
			); err != nil {
				return err
			}
		}

		countries := []struct{ Name, Abbr string }{
			{"Czech Republic", "CZ"},
			{"Slovakia", "SK"},
			{"Germany", "DE"},
		}
		for _, c := range countries {
			if _, err := tx.Exec(ctx,
				`INSERT INTO countries (country_name, country_abbreviation) VALUES ($1, $2)
				 ON CONFLICT (country_abbreviation) DO NOTHING`,
				c.Name, c.Abbr,
			); err != nil {
				return err
			}
		}

		cities := []struct{ Name, Country string }{
			{"Prague", "CZ"},
			{"Brno", "CZ"},
			{"Bratislava", "SK"},
			{"Berlin", "DE"},
		}
		for _, c := range cities {
			if _, err := tx.Exec(ctx,
				`INSERT INTO cities (city_name, id_country)
				 SELECT $1, id FROM countries WHERE country_abbreviation = $2
				 ON CONFLICT (city_name, id_country) DO NOTHING`,
				c.Name, c.Country,
			); err != nil {
				return err
			}
		}

		for _, tag := range []string{"go", "postgresql", "redis", "kubernetes", "figma", "remote"} {
			if _, err := tx.Exec(ctx,
				`INSERT INTO tags (tag_name) VALUES ($1) ON CONFLICT (tag_name) DO NOTHING`,
				tag,
			); err != nil {
				return err
			}
		}
		return nil
	})
}
