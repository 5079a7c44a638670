package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

const (
	positionsSearchPrefix = "positions:search:"
	positionsLockPrefix   = "positions:lock:"
)

type positionSearchCacheKeyInput struct {
	Search string `json:"search"`
	Page   int    `json:"page"`
}

// normalizeSearchValue folds the search text the same way the title match
// does, so two keys are equal only when the queries return the same rows.
func normalizeSearchValue(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func PositionsSearchCacheKey(search string, page int) string {
	in := positionSearchCacheKeyInput{
		Search: normalizeSearchValue(search),
		Page:   page,
	}

	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return positionsSearchPrefix + hex.EncodeToString(sum[:])
}

func PositionsSearchLockKey(searchKey string) string {
	searchKey = strings.TrimSpace(searchKey)
	return positionsLockPrefix + strings.TrimPrefix(searchKey, positionsSearchPrefix)
}
