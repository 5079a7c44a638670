package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"quickjob/internal/domain/application"
	"quickjob/internal/infrastructure/filestore"
	"quickjob/internal/issue"
	"quickjob/internal/pkg/fingerprint"
	"quickjob/internal/pkg/logger"
	"quickjob/internal/pkg/receipt"
	"quickjob/internal/repository"
)

// Issue titles and details shown to candidates.
const (
	IssueRequiredMissing   = "Required field is missing"
	IssueAlreadyApplied    = "You have already applied for this position in this city"
	IssuePositionInactive  = "This position is not active or it's was removed"
	IssueCityInvalid       = "This city is not valid"
	detailRequiredMissing  = "There are required field missing, please check your application."
	detailAlreadyApplied   = "You have already applied for this position."
	detailPositionInactive = "This position is not active or it's was removed."
	detailCityInvalid      = "This city is not valid."
)

type ApplicationInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	LinkedIn    string
	WhyYou      string
	// CityID is the raw form value; anything that is not a number counts as
	// missing.
	CityID       string
	PositionID   int64
	PositionSlug string
}

// Attachment is one uploaded file. Open is called once, inside the
// submission transaction.
type Attachment struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type Submission struct {
	Accepted      bool
	ApplicationID int64
	Files         []string
	Receipt       string
}

type SubmitResult struct {
	Success       bool              `json:"success"`
	Issues        []issue.Issue     `json:"issues"`
	Messages      map[string]string `json:"messages"`
	ApplicationID int64             `json:"application_id,omitempty"`
	Receipt       string            `json:"receipt,omitempty"`
}

type ApplicationWorkflow interface {
	Validate(ctx context.Context, in ApplicationInput, issues *issue.Collector) (bool, error)
	Submit(ctx context.Context, in ApplicationInput, files []Attachment, issues *issue.Collector) (Submission, error)
	SubmitApplication(ctx context.Context, in ApplicationInput, files []Attachment) (SubmitResult, error)
	VerifyReceipt(ctx context.Context, token string) (receipt.Receipt, error)
}

type positionChecker interface {
	IsValidPosition(ctx context.Context, positionID int64) (bool, error)
	IsPositionOpenInCity(ctx context.Context, positionID, cityID int64) (bool, error)
}

type cityChecker interface {
	IsValidCity(ctx context.Context, cityID int64) (bool, error)
}

type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Remove(ctx context.Context, name string) error
}

type ApplicationNotifier interface {
	NotifyApplicationReceived(position string, cityID int64)
}

type submissionObserver interface {
	ObserveSubmission(outcome string)
	AddStoredFiles(n int)
}

type ApplicationDeps struct {
	Applications repository.ApplicationRepository
	Positions    positionChecker
	Cities       cityChecker
	Files        FileStore
	Receipts     receipt.Service
	Notifier     ApplicationNotifier
	Metrics      submissionObserver
	Logger       *zap.Logger

	// CompensateOnRollback removes attachment bytes already written when
	// the transaction does not commit.
	CompensateOnRollback bool
}

type Applications struct {
	apps       repository.ApplicationRepository
	positions  positionChecker
	cities     cityChecker
	files      FileStore
	receipts   receipt.Service
	notifier   ApplicationNotifier
	metrics    submissionObserver
	logger     *zap.Logger
	compensate bool
}

func NewApplicationWorkflow(d ApplicationDeps) *Applications {
	return &Applications{
		apps:       d.Applications,
		positions:  d.Positions,
		cities:     d.Cities,
		files:      d.Files,
		receipts:   d.Receipts,
		notifier:   d.Notifier,
		metrics:    d.Metrics,
		logger:     logger.OrNop(d.Logger),
		compensate: d.CompensateOnRollback,
	}
}

// Validate runs every check and records an issue for each one that fails.
// No check short-circuits another. An error means a lookup could not be
// answered, not that the input is invalid.
func (u *Applications) Validate(ctx context.Context, in ApplicationInput, issues *issue.Collector) (bool, error) {
	if issues == nil {
		issues = issue.NewCollector()
	}
	valid := true

	cityID, cityErr := parseCityID(in.CityID)
	if blank(in.FirstName) || blank(in.LastName) || blank(in.Email) || blank(in.WhyYou) || cityErr != nil {
		issues.Record(IssueRequiredMissing, detailRequiredMissing)
		valid = false
	}

	exists, err := u.apps.ExistsForCandidate(ctx, strings.TrimSpace(in.Email), cityID, in.PositionID)
	if err != nil {
		return false, err
	}
	if exists {
		issues.Record(IssueAlreadyApplied, detailAlreadyApplied)
		valid = false
	}

	ok, err := u.positions.IsValidPosition(ctx, in.PositionID)
	if err != nil {
		return false, err
	}
	if !ok {
		issues.Record(IssuePositionInactive, detailPositionInactive)
		valid = false
	}

	ok, err = u.cities.IsValidCity(ctx, cityID)
	if err != nil {
		return false, err
	}
	if !ok {
		issues.Record(IssueCityInvalid, detailCityInvalid)
		valid = false
	}

	ok, err = u.positions.IsPositionOpenInCity(ctx, in.PositionID, cityID)
	if err != nil {
		return false, err
	}
	if !ok {
		issues.Record(IssueCityInvalid, detailCityInvalid)
		valid = false
	}

	return valid, nil
}

// Submit validates and then stores the application and its attachments in
// one transaction. A rejected submission returns Accepted=false with the
// reasons in issues. Any unexpected failure returns ErrSubmissionFailed.
func (u *Applications) Submit(ctx context.Context, in ApplicationInput, files []Attachment, issues *issue.Collector) (Submission, error) {
	if issues == nil {
		issues = issue.NewCollector()
	}
	log := u.logger.With(
		zap.Int64("position_id", in.PositionID),
		zap.String("city_id", in.CityID),
		zap.String("candidate", fingerprint.Email(in.Email)),
	)

	ok, err := u.Validate(ctx, in, issues)
	if err != nil {
		log.Error("application validation failed", zap.Error(err))
		u.observe(submissionFailed)
		return Submission{}, ErrSubmissionFailed
	}
	if !ok {
		log.Info("application rejected", zap.Int("issues", issues.Len()))
		u.observe(submissionRejected)
		return Submission{}, nil
	}

	cityID, _ := parseCityID(in.CityID)
	app := application.Application{
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       strings.TrimSpace(in.Email),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		LinkedIn:    strings.TrimSpace(in.LinkedIn),
		WhyYou:      in.WhyYou,
		PositionID:  in.PositionID,
		CityID:      cityID,
	}

	sub, err := u.persist(ctx, app, files)
	if errors.Is(err, repository.ErrDuplicateApplication) {
		issues.Record(IssueAlreadyApplied, detailAlreadyApplied)
		log.Info("application rejected by uniqueness constraint")
		u.observe(submissionRejected)
		return Submission{}, nil
	}
	if err != nil {
		log.Error("application submission failed", zap.Error(err))
		u.observe(submissionFailed)
		return Submission{}, ErrSubmissionFailed
	}

	u.observe(submissionAccepted)
	if u.metrics != nil {
		u.metrics.AddStoredFiles(len(sub.Files))
	}
	log.Info("application submitted",
		zap.Int64("application_id", sub.ApplicationID),
		zap.Int("files", len(sub.Files)),
	)

	if u.notifier != nil {
		u.notifier.NotifyApplicationReceived(in.PositionSlug, cityID)
	}
	if u.receipts != nil {
		tok, err := u.receipts.Issue(receipt.Receipt{
			ApplicationID: sub.ApplicationID,
			PositionID:    in.PositionID,
			PositionSlug:  in.PositionSlug,
			CityID:        cityID,
		})
		if err != nil {
			log.Warn("receipt not issued", zap.Int64("application_id", sub.ApplicationID), zap.Error(err))
		} else {
			sub.Receipt = tok
		}
	}
	return sub, nil
}

func (u *Applications) persist(ctx context.Context, app application.Application, files []Attachment) (Submission, error) {
	tx, err := u.apps.Begin(ctx)
	if err != nil {
		return Submission{}, err
	}

	committed := false
	stored := make([]string, 0, len(files))
	defer func() {
		if committed {
			return
		}
		cleanupCtx := context.WithoutCancel(ctx)
		if rbErr := tx.Rollback(cleanupCtx); rbErr != nil {
			u.logger.Warn("application rollback failed", zap.Error(rbErr))
		}
		if !u.compensate {
			return
		}
		for _, name := range stored {
			if rmErr := u.files.Remove(cleanupCtx, name); rmErr != nil {
				u.logger.Warn("orphaned attachment not removed", zap.String("file", name), zap.Error(rmErr))
			}
		}
	}()

	id, err := tx.Insert(ctx, app)
	if err != nil {
		return Submission{}, err
	}

	for _, f := range files {
		name := application.StoredFileName(id, filestore.SanitizeName(f.Filename))
		if _, err := tx.InsertFile(ctx, application.File{FileSrc: name, ApplicationID: id}); err != nil {
			return Submission{}, err
		}
		if err := u.store(ctx, name, f); err != nil {
			return Submission{}, err
		}
		stored = append(stored, name)
	}

	if err := tx.Commit(ctx); err != nil {
		return Submission{}, fmt.Errorf("commit application: %w", err)
	}
	committed = true

	return Submission{Accepted: true, ApplicationID: id, Files: stored}, nil
}

func (u *Applications) store(ctx context.Context, name string, f Attachment) error {
	if u.files == nil {
		return fmt.Errorf("no file store configured")
	}
	if f.Open == nil {
		return fmt.Errorf("attachment %q has no content", f.Filename)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open attachment %q: %w", f.Filename, err)
	}
	defer rc.Close()
	return u.files.Save(ctx, name, rc)
}

// SubmitApplication is Submit with a fresh issue collector, shaped for the
// transport layer.
func (u *Applications) SubmitApplication(ctx context.Context, in ApplicationInput, files []Attachment) (SubmitResult, error) {
	issues := issue.NewCollector()
	sub, err := u.Submit(ctx, in, files, issues)
	if err != nil {
		return SubmitResult{Success: false, Issues: issues.Issues(), Messages: issues.Map()}, err
	}
	return SubmitResult{
		Success:       sub.Accepted,
		Issues:        issues.Issues(),
		Messages:      issues.Map(),
		ApplicationID: sub.ApplicationID,
		Receipt:       sub.Receipt,
	}, nil
}

func (u *Applications) VerifyReceipt(_ context.Context, token string) (receipt.Receipt, error) {
	if u.receipts == nil {
		return receipt.Receipt{}, ErrReceiptInvalid
	}
	r, err := u.receipts.Verify(strings.TrimSpace(token))
	if err != nil {
		return receipt.Receipt{}, ErrReceiptInvalid
	}
	return r, nil
}

const (
	submissionAccepted = "accepted"
	submissionRejected = "rejected"
	submissionFailed   = "failed"
)

func (u *Applications) observe(outcome string) {
	if u.metrics != nil {
		u.metrics.ObserveSubmission(outcome)
	}
}

func parseCityID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
