package usecase

import (
	"context"
	"errors"
	"fmt"

	"quickjob/internal/domain/city"
	"quickjob/internal/repository"
)

type CityLookup interface {
	GetCity(ctx context.Context, cityID int64) (city.City, error)
	IsValidCity(ctx context.Context, cityID int64) (bool, error)
}

type Cities struct {
	repo repository.CityRepository
}

func NewCityLookup(repo repository.CityRepository) *Cities {
	return &Cities{repo: repo}
}

// GetCity returns repository.ErrCityNotFound for unknown ids.
func (u *Cities) GetCity(ctx context.Context, cityID int64) (city.City, error) {
	if cityID <= 0 {
		return city.City{}, repository.ErrCityNotFound
	}
	return u.repo.FindByID(ctx, cityID)
}

func (u *Cities) IsValidCity(ctx context.Context, cityID int64) (bool, error) {
	_, err := u.GetCity(ctx, cityID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, repository.ErrCityNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("city lookup: %w", err)
}
