package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/unilak/community/internal/config"
	"github.com/unilak/community/internal/dto"
	"github.com/unilak/community/internal/models"
	"github.com/unilak/community/internal/store"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidSignup      = errors.New("invalid signup")
)

const (
	homePath      = "/"
	moderatorPath = "/moderator"
)

type AuthService struct {
	store *store.Store
	cfg   *config.Config
}

func NewAuthService(st *store.Store, cfg *config.Config) *AuthService {
	return &AuthService{store: st, cfg: cfg}
}

func (s *AuthService) profiles() *store.Table[models.Profile] {
	return store.For[models.Profile](s.store, models.TableProfiles)
}

func (s *AuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidSignup)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidSignup)
	}
	affiliation := strings.ToLower(strings.TrimSpace(req.Affiliation))
	if affiliation == "" {
		affiliation = models.RoleStudent
	}
	if !models.IsAffiliation(affiliation) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidSignup, req.Affiliation)
	}

	if _, err := s.profiles().First(ctx, store.Q().Eq("email", email)); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.Profile{
		Email:       email,
		Password:    string(hash),
		Role:        models.RoleStudent,
		Affiliation: affiliation,
	}
	if name := strings.TrimSpace(req.Username); name != "" {
		user.Username = &name
	}
	if containsFold(s.cfg.ModeratorEmails, email) {
		user.Role = models.RoleModerator
	}

	if err := s.profiles().Insert(ctx, &user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateTokenPair(ctx, &user, false)
}

func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.Profile
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.store.DB().WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokenPair(ctx, &user, req.RememberMe)
}

// Refresh rotates a refresh token. The replacement keeps the remember-me
// lifetime of the one it replaces.
func (s *AuthService) Refresh(ctx context.Context, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	db := s.store.DB().WithContext(ctx)
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ? AND revoked = ?", tokenHash, false).First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	db.Model(&stored).Update("revoked", true)
	if time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	var user models.Profile
	if err := db.First(&user, "id = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}

	return s.generateTokenPair(ctx, &user, stored.RememberMe)
}

func (s *AuthService) Logout(ctx context.Context, req *dto.LogoutRequest) error {
	return s.store.DB().WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", hashToken(req.RefreshToken)).
		Update("revoked", true).Error
}

func (s *AuthService) generateTokenPair(ctx context.Context, user *models.Profile, rememberMe bool) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, user, rememberMe)
	if err != nil {
		return nil, err
	}

	redirect := homePath
	if user.IsModerator() {
		redirect = moderatorPath
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         ToUserResponse(user),
		Redirect:     redirect,
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.Profile) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, user *models.Profile, rememberMe bool) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	expiry := s.cfg.JWTRefreshExpiry
	if rememberMe {
		expiry = s.cfg.RememberMeExpiry
	}

	record := models.RefreshToken{
		UserID:     user.ID,
		TokenHash:  hashToken(rawToken),
		RememberMe: rememberMe,
		ExpiresAt:  time.Now().Add(expiry),
	}

	if err := s.store.DB().WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func ToUserResponse(p *models.Profile) dto.UserResponse {
	resp := dto.UserResponse{
		ID:          p.ID,
		Email:       p.Email,
		Role:        p.Role,
		Affiliation: p.Affiliation,
	}
	if p.Username != nil {
		resp.Username = *p.Username
	}
	if p.AvatarURL != nil {
		resp.AvatarURL = *p.AvatarURL
	}
	return resp
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}

func containsFold(csv, val string) bool {
	for _, item := range strings.Split(csv, ",") {
		if strings.EqualFold(strings.TrimSpace(item), val) {
			return true
		}
	}
	return false
}
