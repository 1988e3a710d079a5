package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AuthService - opaque session tokens plus room secret hashing. Tokens are
// random UUIDs recorded in the token store; nothing about the caller is
// encoded in them.
type AuthService interface {
	IssueToken(ctx context.Context) (string, error)
	VerifyToken(ctx context.Context, token string) (bool, error)

	HashSecret(secret string) (string, error)
	VerifySecret(secret, hash string) bool
}

type tokenRepo interface {
	Save(ctx context.Context, token string) error
	Exists(ctx context.Context, token string) (bool, error)
}

type authService struct {
	tokens     tokenRepo
	bcryptCost int
}

func NewAuthService(tokens tokenRepo, bcryptCost int) AuthService {
	return &authService{
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

func (that *authService) IssueToken(ctx context.Context) (string, error) {
	token := uuid.NewString()

	if err := that.tokens.Save(ctx, token); err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}

	return token, nil
}

func (that *authService) VerifyToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	ok, err := that.tokens.Exists(ctx, token)
	if err != nil {
		return false, fmt.Errorf("failed to verify token: %w", err)
	}

	return ok, nil
}

func (that *authService) HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), that.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}

	return string(hash), nil
}

func (that *authService) VerifySecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
