package seeder

// Defaults seeds a small demo catalogue: reference data first, then
// positions that point at it.
func Defaults() []Seeder {
	return []Seeder{
		ReferenceSeeder{},
		PositionsSeeder{},
	}
}
