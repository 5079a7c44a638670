package form

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"reflect"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"quickjob/internal/issue"
	"quickjob/internal/usecase"
)

const (
	MaxFiles     = 5
	MaxFileSize  = 5 << 20
	maxFieldSize = 255
	filesField   = "files"
)

var allowedTypes = []string{"application/pdf", "application/msword", "image/jpeg"}

// Issue titles for form rule violations. IssueTooLong is suffixed to the
// field label, e.g. "E-mail is too long".
const (
	IssueTooLong         = "is too long"
	IssueInvalidEmail    = "E-mail is not valid"
	IssuePhoneMissing    = "Phone number is missing"
	IssueTooManyFiles    = "Too many files"
	IssueFileTooLarge    = "File is too large"
	IssueFileTypeInvalid = "File format is not allowed"
)

// Values are the text fields of the application form. Presence of the
// fields the workflow needs is checked there, not here.
type Values struct {
	FirstName   string `form:"first_name" validate:"max=255"`
	LastName    string `form:"last_name" validate:"max=255"`
	Email       string `form:"email" validate:"omitempty,max=255,email"`
	PhoneNumber string `form:"phone_number" validate:"required,max=255"`
	LinkedIn    string `form:"linkedin" validate:"omitempty,max=255"`
	WhyYou      string `form:"why_you"`
	CityID      string `form:"id_city"`
}

type Upload struct {
	Header      *multipart.FileHeader
	Filename    string
	Size        int64
	ContentType string
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

// Read pulls the form out of a multipart or urlencoded request and sniffs
// every uploaded file.
func Read(c fiber.Ctx) (Values, []Upload, error) {
	v := Values{
		FirstName:   strings.TrimSpace(c.FormValue("first_name")),
		LastName:    strings.TrimSpace(c.FormValue("last_name")),
		Email:       strings.TrimSpace(c.FormValue("email")),
		PhoneNumber: strings.TrimSpace(c.FormValue("phone_number")),
		LinkedIn:    strings.TrimSpace(c.FormValue("linkedin")),
		WhyYou:      c.FormValue("why_you"),
		CityID:      strings.TrimSpace(c.FormValue("id_city")),
	}

	if !isMultipart(c) {
		return v, nil, nil
	}
	mf, err := c.MultipartForm()
	if err != nil {
		return Values{}, nil, fmt.Errorf("read multipart form: %w", err)
	}

	headers := mf.File[filesField]
	uploads := make([]Upload, 0, len(headers))
	for _, h := range headers {
		if h == nil || (h.Filename == "" && h.Size == 0) {
			continue
		}
		ct, err := sniff(h)
		if err != nil {
			return Values{}, nil, err
		}
		uploads = append(uploads, Upload{Header: h, Filename: h.Filename, Size: h.Size, ContentType: ct})
	}
	return v, uploads, nil
}

func isMultipart(c fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

func sniff(h *multipart.FileHeader) (string, error) {
	f, err := h.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", h.Filename, err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", fmt.Errorf("sniff upload %q: %w", h.Filename, err)
	}
	return mt.String(), nil
}

// Validate records an issue for every rule the form breaks.
func Validate(v Values, uploads []Upload, issues *issue.Collector) bool {
	valid := true

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			issues.Record("Form is not valid", err.Error())
			return false
		}
		for _, fe := range verrs {
			switch fe.Tag() {
			case "max":
				issues.Record(label(fe.Field())+" "+IssueTooLong, fmt.Sprintf("A maximum of %d characters is allowed.", maxFieldSize))
			case "email":
				issues.Record(IssueInvalidEmail, "Please, provide a valid email address.")
			case "required":
				issues.Record(IssuePhoneMissing, "Please, provide your phone number.")
			}
		}
		valid = false
	}

	if len(uploads) > MaxFiles {
		issues.Record(IssueTooManyFiles, fmt.Sprintf("A maximum of %d files can be uploaded", MaxFiles))
		valid = false
	}
	for _, u := range uploads {
		if u.Size > MaxFileSize {
			issues.Record(IssueFileTooLarge, "A maximum files size is 5 MB")
			valid = false
		}
		if !mimetype.EqualsAny(u.ContentType, allowedTypes...) {
			issues.Record(IssueFileTypeInvalid, "Please, upload the file in one of those formats PDF, DOC or JPG")
			valid = false
		}
	}
	return valid
}

func label(field string) string {
	switch field {
	case "first_name":
		return "First name"
	case "last_name":
		return "Last name"
	case "email":
		return "E-mail"
	case "phone_number":
		return "Phone number"
	case "linkedin":
		return "LinkedIn"
	default:
		return field
	}
}

func (v Values) Input(positionID int64, slug string) usecase.ApplicationInput {
	return usecase.ApplicationInput{
		FirstName:    v.FirstName,
		LastName:     v.LastName,
		Email:        v.Email,
		PhoneNumber:  v.PhoneNumber,
		LinkedIn:     v.LinkedIn,
		WhyYou:       v.WhyYou,
		CityID:       v.CityID,
		PositionID:   positionID,
		PositionSlug: slug,
	}
}

func Attachments(uploads []Upload) []usecase.Attachment {
	out := make([]usecase.Attachment, 0, len(uploads))
	for _, u := range uploads {
		h := u.Header
		out = append(out, usecase.Attachment{
			Filename:    u.Filename,
			Size:        u.Size,
			ContentType: u.ContentType,
			Open: func() (io.ReadCloser, error) {
				if h == nil {
					return nil, fmt.Errorf("upload %q has no content", u.Filename)
				}
				return h.Open()
			},
		})
	}
	return out
}
