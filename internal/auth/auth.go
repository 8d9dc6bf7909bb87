// Package auth derives the signed-in user from the Work Forge bearer token.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/workforge/forgedesk/internal/model"
)

// ErrNoIdentity is returned when neither the token nor the configuration
// names a user ID.
var ErrNoIdentity = errors.New("no user id in token or configuration")

// Claims are the fields the Work Forge backend puts in its tokens. Older
// tokens carry "id", newer ones "userId"; either may be absent when the
// subject claim is used instead.
type Claims struct {
	UserID   string `json:"userId,omitempty"`
	LegacyID string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// PrincipalFromToken reads identity claims without verifying the
// signature. The backend verifies the token on every request; the client
// only needs to know who it is acting as.
func PrincipalFromToken(token string) (model.Principal, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return model.Principal{}, fmt.Errorf("parsing token claims: %w", err)
	}

	p := model.Principal{
		ID:   firstNonEmpty(claims.UserID, claims.LegacyID, claims.Subject),
		Name: firstNonEmpty(claims.Name, claims.Email),
		Role: claims.Role,
	}
	if p.ID == "" {
		return p, ErrNoIdentity
	}
	return p, nil
}

// Resolve merges identity sources. Non-empty configuration fields win over
// the server profile, which wins over token claims.
func Resolve(token string, override model.UserConfig, profile *model.Principal) (model.Principal, error) {
	var p model.Principal
	if token != "" {
		if fromToken, err := PrincipalFromToken(token); err == nil || errors.Is(err, ErrNoIdentity) {
			p = fromToken
		}
	}
	if profile != nil {
		p.ID = firstNonEmpty(profile.ID, p.ID)
		p.Name = firstNonEmpty(profile.Name, p.Name)
		p.Role = firstNonEmpty(profile.Role, p.Role)
	}
	p.ID = firstNonEmpty(override.ID, p.ID)
	p.Name = firstNonEmpty(override.Name, p.Name)
	p.Role = firstNonEmpty(override.Role, p.Role)

	if p.ID == "" {
		return p, ErrNoIdentity
	}
	return p, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
