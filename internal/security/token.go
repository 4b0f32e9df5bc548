package security

import (
	"errors"
	"slices"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

const (
	RolePartner  = "partner"
	RoleOperator = "operator"
)

const partnerAudience = "momo-proxy-api"

// PartnerClaims identifies the company a partner integration acts for.
type PartnerClaims struct {
	CompanyID   int32     `json:"company_id"`
	PartnerCode string    `json:"partner_code,omitempty"`
	Type        TokenType `json:"type"`
	Roles       []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func (c *PartnerClaims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

type TokenManager interface {
	GenerateAccessToken(companyID int32, partnerCode string, roles []string, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (*PartnerClaims, error)
}

type tokenManager struct {
	secret []byte
	issuer string
}

func NewTokenManager(secret, issuer string) TokenManager {
	if issuer == "" {
		issuer = "momo-proxy"
	}
	return &tokenManager{
		secret: []byte(secret),
		issuer: issuer,
	}
}

func (m *tokenManager) GenerateAccessToken(companyID int32, partnerCode string, roles []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := PartnerClaims{
		CompanyID:   companyID,
		PartnerCode: partnerCode,
		Type:        TokenTypeAccess,
		Roles:       roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(companyID)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{partnerAudience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*PartnerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PartnerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(m.issuer), jwt.WithAudience(partnerAudience))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*PartnerClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.CompanyID == 0 && claims.Subject != "" {
		cid, _ := strconv.Atoi(claims.Subject)
		claims.CompanyID = int32(cid)
	}
	if claims.CompanyID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
