package application

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/venturecrest/angelnet/internal/identity/domain"
	"github.com/venturecrest/angelnet/pkg/config"
	"github.com/venturecrest/angelnet/pkg/middleware"
	"github.com/venturecrest/angelnet/pkg/utils"
	"golang.org/x/crypto/bcrypt"
)

// IdentityService 用户注册、登录与角色管理
type IdentityService struct {
	repo domain.UserRepository
	cfg  config.AuthConfig
}

func NewIdentityService(repo domain.UserRepository, cfg config.AuthConfig) *IdentityService {
	return &IdentityService{repo: repo, cfg: cfg}
}

// Register 注册用户；intent 决定初始角色（investor 或 founder）
func (s *IdentityService) Register(ctx context.Context, email, password, fullName, intent string) (*domain.User, error) {
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	role := domain.RoleInvestor
	if intent == domain.RoleFounder {
		role = domain.RoleFounder
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.NewUser(utils.NewID("usr"), email, string(hash), fullName, role)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login 校验凭证并签发 JWT
func (s *IdentityService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", time.Time{}, err
	}
	if user == nil || !user.Active {
		return "", time.Time{}, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, domain.ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.TokenTTL) * time.Hour)
	claims := middleware.AuthClaims{
		UserID: user.UserID,
		Roles:  user.RoleList(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, expiresAt, nil
}

// GetProfile 获取用户信息
func (s *IdentityService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

// GrantRole 给用户授予角色（管理员操作，申请审批通过时也会调用）
func (s *IdentityService) GrantRole(ctx context.Context, userID, role string) (*domain.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	user.GrantRole(role)
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
