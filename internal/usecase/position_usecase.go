package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"quickjob/internal/domain/city"
	"quickjob/internal/domain/position"
	"quickjob/internal/pkg/logger"
	"quickjob/internal/repository"
)

const leadPreviewLength = 200

type SearchResult struct {
	Items      []position.Position
	Total      int
	Page       int
	TotalPages int
}

type PositionSummary struct {
	ID           int64    `json:"id"`
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	CategoryName string   `json:"category_name"`
	Lead         string   `json:"lead"`
	ImgSrc       string   `json:"img_src"`
	ImgAlt       string   `json:"img_alt"`
	Cities       string   `json:"cities"`
	Tags         []string `json:"tags"`
}

type PositionPage struct {
	Items      []PositionSummary `json:"items"`
	Total      int               `json:"total"`
	TotalLabel string            `json:"total_label"`
	Page       int               `json:"page"`
	Search     string            `json:"search"`
	TotalPages int               `json:"total_pages"`
	LastPage   int               `json:"last_page"`
}

type PositionDetail struct {
	Position position.Position
	Cities   []city.City
	Tags     []position.Tag
}

type PositionLookup interface {
	SearchActive(ctx context.Context, search string, page int) (SearchResult, error)
	ListPage(ctx context.Context, search string, page int) (PositionPage, error)
	Detail(ctx context.Context, slug string) (PositionDetail, error)
	GetPosition(ctx context.Context, positionID int64) (position.Position, error)
	GetPositionBySlug(ctx context.Context, slug string) (position.Position, error)
	IsValidPosition(ctx context.Context, positionID int64) (bool, error)
	CitiesAvailable(ctx context.Context, positionID int64) ([]city.City, error)
	CitiesAvailableBySlug(ctx context.Context, slug string) ([]city.City, error)
	IsPositionOpenInCity(ctx context.Context, positionID, cityID int64) (bool, error)
	Tags(ctx context.Context, positionID int64) ([]position.Tag, error)
}

type cacheObserver interface {
	ObserveCacheLookup(hit bool)
}

type Positions struct {
	repo    repository.PositionRepository
	cache   SearchCache
	metrics cacheObserver
	logger  *zap.Logger
}

func NewPositionLookup(repo repository.PositionRepository, cache SearchCache, metrics cacheObserver, log *zap.Logger) *Positions {
	return &Positions{repo: repo, cache: cache, metrics: metrics, logger: logger.OrNop(log)}
}

// SearchActive returns one page of active positions whose title contains
// search, case-insensitively, ordered by title descending. Pages start at 1.
// MaxSearchLength bounds the search text in characters.
const MaxSearchLength = 255

func checkSearch(search string) error {
	if utf8.RuneCountInString(search) > MaxSearchLength {
		return fmt.Errorf("%w: search text longer than %d characters", ErrInvalidInput, MaxSearchLength)
	}
	return nil
}

func (u *Positions) SearchActive(ctx context.Context, search string, page int) (SearchResult, error) {
	if err := checkSearch(search); err != nil {
		return SearchResult{}, err
	}
	if page < 1 {
		page = 1
	}

	total, err := u.repo.CountActive(ctx, search)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search positions: %w", err)
	}

	res := SearchResult{
		Items:      []position.Position{},
		Total:      total,
		Page:       page,
		TotalPages: position.TotalPages(total),
	}
	if page > res.TotalPages {
		return res, nil
	}

	items, err := u.repo.ListActive(ctx, search, position.PageSize, (page-1)*position.PageSize)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search positions: %w", err)
	}
	res.Items = items
	return res, nil
}

// ListPage is SearchActive rendered for the listing, cached per search text
// and page.
func (u *Positions) ListPage(ctx context.Context, search string, page int) (PositionPage, error) {
	search = strings.TrimSpace(search)
	if err := checkSearch(search); err != nil {
		return PositionPage{}, err
	}
	if page < 1 {
		page = 1
	}

	cacheKey := PositionsSearchCacheKey(search, page)
	lockKey := PositionsSearchLockKey(cacheKey)

	if u.cache != nil {
		var cached PositionPage
		hit, err := u.cache.GetJSON(ctx, cacheKey, &cached)
		if err == nil && hit {
			u.observeCache(true)
			u.logger.Debug("positions cache hit", zap.String("key", cacheKey))
			cached.Search = search
			return cached, nil
		}
		u.observeCache(false)
	}

	lockAcquired := false
	if u.cache != nil {
		ok, err := u.cache.SetIfNotExists(ctx, lockKey, "1", 30*time.Second)
		switch {
		case err == nil && ok:
			lockAcquired = true
		case err == nil && !ok:
			jitter := time.Duration(time.Now().UnixNano()%201) * time.Millisecond
			if !sleepCtx(ctx, 300*time.Millisecond+jitter) {
				return PositionPage{}, ctx.Err()
			}
			var cached PositionPage
			hit, err2 := u.cache.GetJSON(ctx, cacheKey, &cached)
			if err2 == nil && hit {
				cached.Search = search
				return cached, nil
			}
			u.logger.Debug("positions lock wait fallback", zap.String("key", lockKey))
		}
	}

	out, err := u.buildPage(ctx, search, page)
	if err != nil {
		if lockAcquired {
			_ = u.cache.Delete(ctx, lockKey)
		}
		return PositionPage{}, err
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, cacheKey, out, 0); err != nil {
			u.logger.Warn("positions cache set failed", zap.String("key", cacheKey), zap.Error(err))
		}
		if lockAcquired {
			_ = u.cache.Delete(ctx, lockKey)
		}
	}
	return out, nil
}

func (u *Positions) buildPage(ctx context.Context, search string, page int) (PositionPage, error) {
	res, err := u.SearchActive(ctx, search, page)
	if err != nil {
		return PositionPage{}, err
	}

	items := make([]PositionSummary, 0, len(res.Items))
	for _, p := range res.Items {
		cities, err := u.repo.ListCities(ctx, p.ID)
		if err != nil {
			return PositionPage{}, fmt.Errorf("position %d cities: %w", p.ID, err)
		}
		tags, err := u.repo.ListTags(ctx, p.ID)
		if err != nil {
			return PositionPage{}, fmt.Errorf("position %d tags: %w", p.ID, err)
		}

		items = append(items, PositionSummary{
			ID:           p.ID,
			Slug:         p.Slug,
			Title:        p.Title,
			CategoryName: p.CategoryName,
			Lead:         LeadPreview(p.Lead),
			ImgSrc:       p.ImgSrc,
			ImgAlt:       p.ImgAlt,
			Cities:       CitiesLabel(cities),
			Tags:         TagNames(tags),
		})
	}

	lastPage := res.TotalPages
	if lastPage < 1 {
		lastPage = 1
	}
	return PositionPage{
		Items:      items,
		Total:      res.Total,
		TotalLabel: OpportunitiesLabel(res.Total),
		Page:       res.Page,
		Search:     search,
		TotalPages: res.TotalPages,
		LastPage:   lastPage,
	}, nil
}

func (u *Positions) Detail(ctx context.Context, slug string) (PositionDetail, error) {
	p, err := u.GetPositionBySlug(ctx, slug)
	if err != nil {
		return PositionDetail{}, err
	}
	cities, err := u.repo.ListCities(ctx, p.ID)
	if err != nil {
		return PositionDetail{}, fmt.Errorf("position %d cities: %w", p.ID, err)
	}
	tags, err := u.repo.ListTags(ctx, p.ID)
	if err != nil {
		return PositionDetail{}, fmt.Errorf("position %d tags: %w", p.ID, err)
	}
	return PositionDetail{Position: p, Cities: cities, Tags: tags}, nil
}

func (u *Positions) GetPosition(ctx context.Context, positionID int64) (position.Position, error) {
	if positionID <= 0 {
		return position.Position{}, ErrPositionNotFound
	}
	p, err := u.repo.FindActiveByID(ctx, positionID)
	return p, mapPositionErr(err)
}

func (u *Positions) GetPositionBySlug(ctx context.Context, slug string) (position.Position, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return position.Position{}, ErrPositionNotFound
	}
	p, err := u.repo.FindActiveBySlug(ctx, slug)
	return p, mapPositionErr(err)
}

func (u *Positions) IsValidPosition(ctx context.Context, positionID int64) (bool, error) {
	_, err := u.GetPosition(ctx, positionID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrPositionNotFound) {
		return false, nil
	}
	return false, err
}

func (u *Positions) CitiesAvailable(ctx context.Context, positionID int64) ([]city.City, error) {
	return u.repo.ListCities(ctx, positionID)
}

func (u *Positions) CitiesAvailableBySlug(ctx context.Context, slug string) ([]city.City, error) {
	return u.repo.ListCitiesBySlug(ctx, strings.TrimSpace(slug))
}

func (u *Positions) IsPositionOpenInCity(ctx context.Context, positionID, cityID int64) (bool, error) {
	if positionID <= 0 || cityID <= 0 {
		return false, nil
	}
	return u.repo.IsOpenInCity(ctx, positionID, cityID)
}

func (u *Positions) Tags(ctx context.Context, positionID int64) ([]position.Tag, error) {
	return u.repo.ListTags(ctx, positionID)
}

func (u *Positions) observeCache(hit bool) {
	if u.metrics != nil {
		u.metrics.ObserveCacheLookup(hit)
	}
}

func mapPositionErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrPositionNotFound) {
		return ErrPositionNotFound
	}
	return err
}

// LeadPreview strips markup from a lead and cuts it to a fixed number of
// characters. The ellipsis is always appended.
func LeadPreview(lead string) string {
	text := lead
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(lead)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")

	if utf8.RuneCountInString(text) > leadPreviewLength {
		text = string([]rune(text)[:leadPreviewLength])
	}
	return text + "..."
}

// CitiesLabel renders cities as "Prague (CZ), Brno (CZ)".
func CitiesLabel(cities []city.City) string {
	parts := make([]string, 0, len(cities))
	for _, c := range cities {
		parts = append(parts, c.Label())
	}
	return strings.Join(parts, ", ")
}

func TagNames(tags []position.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

func OpportunitiesLabel(total int) string {
	if total > 1 {
		return "opportunities found"
	}
	return "opportunity found"
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
