package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/omkarpat/dcr-service/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Parser verifies access tokens issued by the identity service and
// extracts the acting principal. Issuance lives outside this service.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

type claims struct {
	Role     string `json:"role"`
	BranchID string `json:"bid,omitempty"`
	jwt.RegisteredClaims
}

// Parse validates the token signature and expiry and maps its claims onto
// a model.Actor. BRANCH tokens must carry a branch binding.
func (p *Parser) Parse(token string) (model.Actor, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(parsed.Subject)
	if err != nil {
		return model.Actor{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	actor := model.Actor{UserID: userID}
	switch model.Role(parsed.Role) {
	case model.RoleBranch, model.RoleAdmin, model.RoleViewer:
		actor.Role = model.Role(parsed.Role)
	default:
		return model.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, parsed.Role)
	}

	if actor.Role == model.RoleBranch {
		branchID, err := uuid.Parse(parsed.BranchID)
		if err != nil {
			return model.Actor{}, fmt.Errorf("%w: branch binding missing", ErrInvalidToken)
		}
		actor.BranchID = branchID
	}
	return actor, nil
}
