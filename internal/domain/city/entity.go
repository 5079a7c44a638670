package city

type City struct {
	ID                  int64
	Name                string
	CountryAbbreviation string
}

// Label renders the city the way listings show it, e.g. "Prague (CZ)".
func (c City) Label() string {
	if c.CountryAbbreviation == "" {
		return c.Name
	}
	return c.Name + " (" + c.CountryAbbreviation + ")"
}
