package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lagrosa/dpwh-estimates/internal/model"
)

type Claims struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(token string) (model.Principal, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, err
	}
	if !parsed.Valid {
		return model.Principal{}, errors.New("invalid token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("invalid user_id claim: %w", err)
	}
	orgID, err := uuid.Parse(claims.OrgID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("invalid org_id claim: %w", err)
	}

	return model.Principal{
		UserID: userID,
		OrgID:  orgID,
		Role:   model.Role(strings.ToUpper(strings.TrimSpace(claims.Role))),
	}, nil
}
