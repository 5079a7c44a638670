package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"quickjob/internal/delivery/http/middleware"
	"quickjob/internal/domain/city"
	"quickjob/internal/domain/position"
	"quickjob/internal/issue"
	"quickjob/internal/pkg/receipt"
	"quickjob/internal/usecase"
)

type stubPositions struct {
	page   usecase.PositionPage
	detail usecase.PositionDetail
	cities []city.City
	err    error

	gotSearch string
	gotPage   int
}

func (s *stubPositions) SearchActive(context.Context, string, int) (usecase.SearchResult, error) {
	return usecase.SearchResult{}, s.err
}

func (s *stubPositions) ListPage(_ context.Context, search string, page int) (usecase.PositionPage, error) {
	s.gotSearch, s.gotPage = search, page
	return s.page, s.err
}

func (s *stubPositions) Detail(_ context.Context, slug string) (usecase.PositionDetail, error) {
	if s.err != nil {
		return usecase.PositionDetail{}, s.err
	}
	if slug != s.detail.Position.Slug {
		return usecase.PositionDetail{}, usecase.ErrPositionNotFound
	}
	return s.detail, nil
}

func (s *stubPositions) GetPosition(context.Context, int64) (position.Position, error) {
	return s.detail.Position, s.err
}

func (s *stubPositions) GetPositionBySlug(_ context.Context, slug string) (position.Position, error) {
	if slug != s.detail.Position.Slug {
		return position.Position{}, usecase.ErrPositionNotFound
	}
	return s.detail.Position, nil
}

func (s *stubPositions) IsValidPosition(context.Context, int64) (bool, error) { return true, nil }

func (s *stubPositions) CitiesAvailable(context.Context, int64) ([]city.City, error) {
	return s.cities, s.err
}

func (s *stubPositions) CitiesAvailableBySlug(context.Context, string) ([]city.City, error) {
	return s.cities, s.err
}

func (s *stubPositions) IsPositionOpenInCity(context.Context, int64, int64) (bool, error) {
	return true, nil
}

func (s *stubPositions) Tags(context.Context, int64) ([]position.Tag, error) { return nil, nil }

type stubWorkflow struct {
	result usecase.SubmitResult
	err    error

	gotInput usecase.ApplicationInput
	gotFiles map[string]string
	receipt  receipt.Receipt
}

func (s *stubWorkflow) Validate(context.Context, usecase.ApplicationInput, *issue.Collector) (bool, error) {
	return true, nil
}

func (s *stubWorkflow) Submit(context.Context, usecase.ApplicationInput, []usecase.Attachment, *issue.Collector) (usecase.Submission, error) {
	return usecase.Submission{}, nil
}

func (s *stubWorkflow) SubmitApplication(_ context.Context, in usecase.ApplicationInput, files []usecase.Attachment) (usecase.SubmitResult, error) {
	s.gotInput = in
	s.gotFiles = map[string]string{}
	for _, f := range files {
		rc, err := f.Open()
		if err != nil {
			return usecase.SubmitResult{}, err
		}
		b, _ := io.ReadAll(rc)
		_ = rc.Close()
		s.gotFiles[f.Filename] = f.ContentType + ":" + string(b)
	}
	return s.result, s.err
}

func (s *stubWorkflow) VerifyReceipt(_ context.Context, token string) (receipt.Receipt, error) {
	if token != "good" {
		return receipt.Receipt{}, usecase.ErrReceiptInvalid
	}
	return s.receipt, nil
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(positions *stubPositions, workflow *stubWorkflow) *fiber.App {
	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(zap.NewNop()).Middleware())

	api := app.Group("/api/v1")
	ph := NewPositionsHandler(positions)
	pg := api.Group("/positions")
	ph.RegisterRoutes(pg)
	NewApplicationsHandler(workflow, positions).RegisterRoutes(pg, api.Group("/applications"))
	NewHealthHandler(nil).RegisterRoutes(app)
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func goEngineer() usecase.PositionDetail {
	return usecase.PositionDetail{
		Position: position.Position{ID: 3, Slug: "go-engineer", Title: "Go Engineer", IsActive: true},
		Cities:   []city.City{{ID: 7, Name: "Prague", CountryAbbreviation: "CZ"}},
		Tags:     []position.Tag{{ID: 1, Name: "go"}},
	}
}

func TestHandleList(t *testing.T) {
	positions := &stubPositions{page: usecase.PositionPage{
		Items:      []usecase.PositionSummary{{ID: 3, Slug: "go-engineer"}},
		Total:      1,
		TotalLabel: "opportunity found",
		Page:       2,
		TotalPages: 1,
		LastPage:   1,
	}}
	app := newTestApp(positions, &stubWorkflow{})

	status, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/positions?search=go&page=2", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "go", positions.gotSearch)
	assert.Equal(t, 2, positions.gotPage)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "opportunity found", data["total_label"])
	assert.Len(t, data["items"], 1)
}

func TestHandleList_BadPage(t *testing.T) {
	app := newTestApp(&stubPositions{}, &stubWorkflow{})
	status, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/positions?page=abc", nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandleList_InvalidSearch(t *testing.T) {
	err := fmt.Errorf("%w: search text longer than 255 characters", usecase.ErrInvalidInput)
	app := newTestApp(&stubPositions{err: err}, &stubWorkflow{})
	status, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/positions?search=x", nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHandleList_InternalErrorIsHidden(t *testing.T) {
	app := newTestApp(&stubPositions{err: errors.New("pq: password authentication failed")}, &stubWorkflow{})
	status, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", env.Message)
}

func TestHandleDetail(t *testing.T) {
	app := newTestApp(&stubPositions{detail: goEngineer()}, &stubWorkflow{})

	status, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/positions/go-engineer", nil))
	assert.Equal(t, http.StatusOK, status)
	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Go Engineer", data["title"])
	assert.Equal(t, []any{"go"}, data["tags"])

	status, env = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/positions/missing", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Position not found", env.Message)
}

func TestHandleCities(t *testing.T) {
	d := goEngineer()
	app := newTestApp(&stubPositions{detail: d, cities: d.Cities}, &stubWorkflow{})

	status, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/positions/go-engineer/cities", nil))
	assert.Equal(t, http.StatusOK, status)
	var data []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data, 1)
	assert.Equal(t, "Prague (CZ)", data[0]["label"])
}

func multipartRequest(t *testing.T, url string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func applicationFields() map[string]string {
	return map[string]string{
		"first_name":   "Ana",
		"last_name":    "Silva",
		"email":        "ana@x.com",
		"phone_number": "+420 123",
		"why_you":      "...",
		"id_city":      "7",
	}
}

func TestHandleSubmit_Success(t *testing.T) {
	wf := &stubWorkflow{result: usecase.SubmitResult{Success: true, ApplicationID: 11, Receipt: "tok"}}
	app := newTestApp(&stubPositions{detail: goEngineer()}, wf)

	pdf := []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<<>>\nendobj\n")
	req := multipartRequest(t, "/api/v1/positions/go-engineer/applications", applicationFields(), map[string][]byte{"cv.pdf": pdf})

	status, env := do(t, app, req)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Thank you for your application", env.Message)

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, float64(11), data["application_id"])
	assert.Equal(t, "tok", data["receipt"])

	assert.Equal(t, int64(3), wf.gotInput.PositionID)
	assert.Equal(t, "go-engineer", wf.gotInput.PositionSlug)
	assert.Equal(t, "7", wf.gotInput.CityID)
	assert.Equal(t, "application/pdf:"+string(pdf), wf.gotFiles["cv.pdf"])
}

func TestHandleSubmit_UnknownPosition(t *testing.T) {
	app := newTestApp(&stubPositions{detail: goEngineer()}, &stubWorkflow{})
	req := multipartRequest(t, "/api/v1/positions/nope/applications", applicationFields(), nil)

	status, env := do(t, app, req)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Position not found", env.Message)
}

func TestHandleSubmit_FormViolations(t *testing.T) {
	wf := &stubWorkflow{}
	app := newTestApp(&stubPositions{detail: goEngineer()}, wf)

	fields := applicationFields()
	fields["email"] = "nope"
	req := multipartRequest(t, "/api/v1/positions/go-engineer/applications", fields, map[string][]byte{"run.exe": []byte("MZ\x90\x00")})

	status, env := do(t, app, req)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	var data struct {
		Issues   []issue.Issue     `json:"issues"`
		Messages map[string]string `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	titles := []string{}
	for _, is := range data.Issues {
		titles = append(titles, is.Title)
	}
	assert.Contains(t, titles, "E-mail is not valid")
	assert.Contains(t, titles, "File format is not allowed")
	assert.Contains(t, data.Messages, "E-mail is not valid")
	assert.Len(t, data.Messages, len(data.Issues))
	assert.Empty(t, wf.gotInput.FirstName, "workflow must not run")
}

func TestHandleSubmit_Rejected(t *testing.T) {
	wf := &stubWorkflow{result: usecase.SubmitResult{
		Success: false,
		Issues:  []issue.Issue{{Title: usecase.IssueAlreadyApplied, Detail: "You have already applied for this position."}},
	}}
	app := newTestApp(&stubPositions{detail: goEngineer()}, wf)

	status, env := do(t, app, multipartRequest(t, "/api/v1/positions/go-engineer/applications", applicationFields(), nil))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(env.Data), usecase.IssueAlreadyApplied)

	var data struct {
		Messages map[string]string `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "You have already applied for this position.", data.Messages[usecase.IssueAlreadyApplied])
}

func TestHandleSubmit_StorageFailureShowsPublicMessage(t *testing.T) {
	wf := &stubWorkflow{err: usecase.ErrSubmissionFailed}
	app := newTestApp(&stubPositions{detail: goEngineer()}, wf)

	status, env := do(t, app, multipartRequest(t, "/api/v1/positions/go-engineer/applications", applicationFields(), nil))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, usecase.SubmissionFailedMessage, env.Message)
}

func TestHandleReceipt(t *testing.T) {
	wf := &stubWorkflow{receipt: receipt.Receipt{ApplicationID: 11, PositionSlug: "go-engineer", CityID: 7}}
	app := newTestApp(&stubPositions{}, wf)

	status, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/applications/receipts/good", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"application_id":11`)

	status, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/applications/receipts/bad", nil))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHandleHealth(t *testing.T) {
	app := newTestApp(&stubPositions{}, &stubWorkflow{})
	status, env := do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", env.Message)
}
