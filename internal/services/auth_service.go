package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"maplestore/internal/apperrors"
	"maplestore/internal/models"
	"maplestore/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo      repositories.UserRepository
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewAuthService creates a new AuthService. Tokens last 24 hours unless
// tokenDuration is set.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenDuration time.Duration) *AuthService {
	if tokenDuration <= 0 {
		tokenDuration = 24 * time.Hour
	}
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: tokenDuration,
	}
}

// RegisterUser registers a new customer account. Self-registered users are
// never staff.
func (s *AuthService) RegisterUser(ctx context.Context, user *models.User) error {
	user.IsStaff = false
	return s.create(ctx, user)
}

// EnsureStaffUser creates the staff account if the username is not taken yet.
func (s *AuthService) EnsureStaffUser(ctx context.Context, username, email, password string) error {
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	user := &models.User{Username: username, Email: email, Password: password, IsStaff: true}
	if err := s.create(ctx, user); err != nil {
		return err
	}
	log.Printf("Created staff user %s", username)
	return nil
}

func (s *AuthService) create(ctx context.Context, user *models.User) error {
	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := validateStruct(user); err != nil {
		return err
	}

	if _, err := s.userRepo.GetByUsername(ctx, user.Username); err == nil {
		return apperrors.New(apperrors.CodeConflict, fmt.Sprintf("username '%s' already taken", user.Username))
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return internal(err)
	}
	if _, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil {
		return apperrors.New(apperrors.CodeConflict, fmt.Sprintf("email '%s' already registered", user.Email))
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return internal(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Create(ctx, user); err != nil {
		return internal(fmt.Errorf("failed to register user: %w", err))
	}
	return nil
}

// LoginUser authenticates a user and returns a JWT token if successful.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Error loading user %s: %v", username, err)
		}
		return "", apperrors.New(apperrors.CodeAuthRequired, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", apperrors.New(apperrors.CodeAuthRequired, "invalid credentials")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"is_staff": user.IsStaff,
		"exp":      now.Add(s.tokenDuration).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", apperrors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// Authenticate turns a token into the caller's principal.
func (s *AuthService) Authenticate(tokenString string) (models.Principal, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return models.Anonymous, err
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return models.Anonymous, fmt.Errorf("invalid token: missing user_id")
	}
	isStaff, _ := claims["is_staff"].(bool)
	return models.Principal{UserID: userID, IsStaff: isStaff}, nil
}
