package dto

import (
	"quickjob/internal/domain/city"
	"quickjob/internal/usecase"
)

type PositionListResponse struct {
	Items      []usecase.PositionSummary `json:"items"`
	Total      int                       `json:"total"`
	TotalLabel string                    `json:"total_label"`
	Page       int                       `json:"page"`
	Search     string                    `json:"search"`
	TotalPages int                       `json:"total_pages"`
	LastPage   int                       `json:"last_page"`
}

func NewPositionListResponse(p usecase.PositionPage) PositionListResponse {
	items := p.Items
	if items == nil {
		items = []usecase.PositionSummary{}
	}
	return PositionListResponse{
		Items:      items,
		Total:      p.Total,
		TotalLabel: p.TotalLabel,
		Page:       p.Page,
		Search:     p.Search,
		TotalPages: p.TotalPages,
		LastPage:   p.LastPage,
	}
}

type CityResponse struct {
	ID                  int64  `json:"id"`
	Name                string `json:"name"`
	CountryAbbreviation string `json:"country_abbreviation"`
	Label               string `json:"label"`
}

func NewCityResponses(cities []city.City) []CityResponse {
	out := make([]CityResponse, 0, len(cities))
	for _, c := range cities {
		out = append(out, CityResponse{
			ID:                  c.ID,
			Name:                c.Name,
			CountryAbbreviation: c.CountryAbbreviation,
			Label:               c.Label(),
		})
	}
	return out
}

type PositionDetailResponse struct {
	ID           int64          `json:"id"`
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	CategoryName string         `json:"category_name"`
	Lead         string         `json:"lead"`
	Content      string         `json:"content"`
	ImgSrc       string         `json:"img_src"`
	ImgAlt       string         `json:"img_alt"`
	Cities       []CityResponse `json:"cities"`
	Tags         []string       `json:"tags"`
}

func NewPositionDetailResponse(d usecase.PositionDetail) PositionDetailResponse {
	p := d.Position
	return PositionDetailResponse{
		ID:           p.ID,
		Slug:         p.Slug,
		Title:        p.Title,
		CategoryName: p.CategoryName,
		Lead:         p.Lead,
		Content:      p.Content,
		ImgSrc:       p.ImgSrc,
		ImgAlt:       p.ImgAlt,
		Cities:       NewCityResponses(d.Cities),
		Tags:         usecase.TagNames(d.Tags),
	}
}
