package receipt

import (
	"errors"
	"strconv"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const tokenType = "application_receipt"

var (
	ErrTokenExpired = errors.New("receipt expired")
	ErrTokenInvalid = errors.New("receipt invalid")
)

// Receipt is what a candidate gets back after a committed submission. It
// carries no personal data.
type Receipt struct {
	ApplicationID int64     `json:"application_id"`
	PositionID    int64     `json:"position_id"`
	PositionSlug  string    `json:"position"`
	CityID        int64     `json:"city_id"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type Claims struct {
	ApplicationID int64  `json:"application_id"`
	PositionID    int64  `json:"position_id"`
	PositionSlug  string `json:"position,omitempty"`
	CityID        int64  `json:"city_id"`
	TokenType     string `json:"token_type"`

	jwtlib.RegisteredClaims
}

type Service interface {
	Issue(r Receipt) (string, error)
	Verify(token string) (Receipt, error)
}

type HMACService struct {
	secret    []byte
	expiresIn time.Duration

	now func() time.Time
}

func NewHMACService(secret string, expiresIn time.Duration) *HMACService {
	return &HMACService{
		secret:    []byte(secret),
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

func (s *HMACService) Issue(r Receipt) (string, error) {
	if s == nil || len(s.secret) == 0 || s.expiresIn <= 0 {
		return "", ErrTokenInvalid
	}
	if r.ApplicationID <= 0 {
		return "", ErrTokenInvalid
	}

	now := s.now().UTC()
	c := Claims{
		ApplicationID: r.ApplicationID,
		PositionID:    r.PositionID,
		PositionSlug:  r.PositionSlug,
		CityID:        r.CityID,
		TokenType:     tokenType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.expiresIn)),
			Subject:   strconv.FormatInt(r.ApplicationID, 10),
		},
	}

	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c)
	return t.SignedString(s.secret)
}

func (s *HMACService) Verify(token string) (Receipt, error) {
	if s == nil || len(s.secret) == 0 || token == "" {
		return Receipt{}, ErrTokenInvalid
	}

	p := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
	)

	var c Claims
	tok, err := p.ParseWithClaims(token, &c, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Receipt{}, ErrTokenExpired
		}
		return Receipt{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid || c.TokenType != tokenType || c.ApplicationID <= 0 {
		return Receipt{}, ErrTokenInvalid
	}

	r := Receipt{
		ApplicationID: c.ApplicationID,
		PositionID:    c.PositionID,
		PositionSlug:  c.PositionSlug,
		CityID:        c.CityID,
	}
	if c.IssuedAt != nil {
		r.IssuedAt = c.IssuedAt.UTC()
	}
	if c.ExpiresAt != nil {
		r.ExpiresAt = c.ExpiresAt.UTC()
	}
	return r, nil
}
