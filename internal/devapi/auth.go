package devapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// invalidCredentials is the only detail a failed login reveals.
const invalidCredentials = "Invalid email or password"

var errInvalidCredentials = errors.New("devapi: invalid credentials")

// Claims of the token returned by login.
type Claims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	CenterID string `json:"lc_id"`
	jwt.RegisteredClaims
}

type loginRequest struct {
	Center   string `json:"center"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// isBcryptHash recognises the hash prefixes bcrypt produces.
func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// authenticate checks the credentials of a staff member. A stored password
// that is not a bcrypt hash is a legacy plaintext one: it is compared as is
// and replaced by its hash on the first successful login.
func (s *Server) authenticate(ctx context.Context, req loginRequest) (Row, error) {
	user, err := s.store.FindStaffByEmail(ctx, req.Email)
	if errors.Is(err, ErrNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	stored, _ := user["user_pass"].(string)
	stored = strings.TrimSpace(stored)
	password := strings.TrimSpace(req.Password)
	if stored == "" || password == "" {
		return nil, errInvalidCredentials
	}

	if isBcryptHash(stored) {
		if bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) != nil {
			return nil, errInvalidCredentials
		}
	} else {
		if stored != password {
			return nil, errInvalidCredentials
		}
		s.upgradePassword(ctx, user, password)
	}

	if req.Center != "" {
		if lc, _ := user["lc_id"].(string); lc != req.Center {
			return nil, errInvalidCredentials
		}
	}
	return user, nil
}

// upgradePassword failures are logged only; the login itself succeeds.
func (s *Server) upgradePassword(ctx context.Context, user Row, password string) {
	id, _ := user["id"].(string)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("devapi: hash legacy password for %s: %v", id, err)
		return
	}
	if err := s.store.SetStaffPassword(ctx, id, string(hash)); err != nil {
		log.Printf("devapi: upgrade legacy password for %s: %v", id, err)
		return
	}
	log.Printf("devapi: legacy password of %s upgraded to bcrypt", id)
}

func (s *Server) issueToken(user Row) (string, error) {
	id, _ := user["id"].(string)
	role, _ := user["user_role"].(string)
	lc, _ := user["lc_id"].(string)
	now := s.now()

	claims := &Claims{
		UserID:   id,
		Role:     role,
		CenterID: lc,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseToken validates a token issued by login.
func ParseToken(secret, raw string, now time.Time) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil {
		return nil, fmt.Errorf("devapi: parse token: %w", err)
	}
	return claims, nil
}
