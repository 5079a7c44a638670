package seeder

import (
	"context"

	"quickjob/internal/database"
)

type demoPosition struct {
	Slug     string
	Title    string
	Category string
	Lead     string
	Content  string
	Active   bool
	Cities   []string
	Tags     []string
}

var demoPositions = []demoPosition{
	{
		Slug:     "backend-engineer",
		Title:    "Backend Engineer",
		Category: "Engineering",
		Lead:     "<p>Build the <strong>APIs</strong> behind our job board.</p>",
		Content:  "<p>You will own services written in Go on top of PostgreSQL and Redis.</p>",
		Active:   true,
		Cities:   []string{"Prague", "Brno"},
		Tags:     []string{"go", "postgresql", "redis"},
	},
	{
		Slug:     "platform-engineer",
		Title:    "Platform Engineer",
		Category: "Engineering",
		Lead:     "<p>Keep our clusters boring.</p>",
		Content:  "<p>Kubernetes, observability and on-call tooling.</p>",
		Active:   true,
		Cities:   []string{"Berlin", "Prague"},
		Tags:     []string{"kubernetes", "remote"},
	},
	{
		Slug:     "product-designer",
		Title:    "Product Designer",
		Category: "Design",
		Lead:     "<p>Shape how candidates find their next role.</p>",
		Content:  "<p>Own the listing and application flows end to end.</p>",
		Active:   true,
		Cities:   []string{"Bratislava"},
		Tags:     []string{"figma"},
	},
	{
		Slug:     "legacy-php-engineer",
		Title:    "Legacy PHP Engineer",
		Category: "Engineering",
		Lead:     "<p>This opening has been filled.</p>",
		Active:   false,
		Cities:   []string{"Prague"},
	},
}

type PositionsSeeder struct{}

func (PositionsSeeder) Name() string { return "positions" }

func (PositionsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := requireColumns(ctx, db, "job_positions", "id", "slug", "title", "lead", "is_active", "id_category"); err != nil {
		return err
	}

	return database.WithTx(ctx, db, func(tx database.Tx) error {
		for _, p := range demoPositions {
			if _, err := tx.Exec(ctx,
				`INSERT INTO job_positions (slug, title, content, lead, is_active, id_category)
				 SELECT $1, $2, $3, $4, $5, id FROM categories WHERE category_name = $6
				 ON CONFLICT (slug) DO NOTHING`,
				p.Slug, p.Title, p.Content, p.Lead, p.Active, p.Category,
			); err != nil {
				return err
			}

			for _, c := range p.Cities {
				if _, err := tx.Exec(ctx,
					`INSERT INTO job_position_cities (id_job_position, id_city)
					 SELECT p.id, c.id FROM job_positions p, cities c
					 WHERE p.slug = $1 AND c.city_name = $2
					 ON CONFLICT DO NOTHING`,
					p.Slug, c,
				); err != nil {
					return err
				}
			}

			for _, t := range p.Tags {
				if _, err := tx.Exec(ctx,
					`INSERT INTO job_positions_tags (id_job_position, id_tags)
					 SELECT p.id, t.id FROM job_positions p, tags t
					 WHERE p.slug = $1 AND t.tag_name = $2
					 ON CONFLICT DO NOTHING`,
					p.Slug, t,
				); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
