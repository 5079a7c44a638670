package dto

import (
	"time"

	"quickjob/internal/issue"
	"quickjob/internal/pkg/receipt"
)

// ApplicationIssuesResponse carries the ordered issues and the same issues
// keyed by title.
type ApplicationIssuesResponse struct {
	Issues   []issue.Issue     `json:"issues"`
	Messages map[string]string `json:"messages"`
}

func NewApplicationIssuesResponse(issues []issue.Issue, messages map[string]string) ApplicationIssuesResponse {
	if issues == nil {
		issues = []issue.Issue{}
	}
	if messages == nil {
		messages = make(map[string]string, len(issues))
		for _, is := range issues {
			messages[is.Title] = is.Detail
		}
	}
	return ApplicationIssuesResponse{Issues: issues, Messages: messages}
}

type ApplicationCreatedResponse struct {
	ApplicationID int64  `json:"application_id"`
	Receipt       string `json:"receipt,omitempty"`
}

type ReceiptResponse struct {
	ApplicationID int64  `json:"application_id"`
	Position      string `json:"position"`
	CityID        int64  `json:"city_id"`
	IssuedAt      string `json:"issued_at"`
	ExpiresAt     string `json:"expires_at"`
}

func NewReceiptResponse(r receipt.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ApplicationID: r.ApplicationID,
		Position:      r.PositionSlug,
		CityID:        r.CityID,
		IssuedAt:      formatTime(r.IssuedAt),
		ExpiresAt:     formatTime(r.ExpiresAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
