// Package domain 包含用户与角色的领域模型
package domain

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

// 平台角色
const (
	RoleInvestor   = "investor"
	RoleFounder    = "founder"
	RoleAdmin      = "admin"
	RoleCompliance = "compliance"
)

var (
	// ErrEmailTaken 邮箱已注册
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials 凭证无效
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
)

// User 平台用户实体
type User struct {
	gorm.Model
	UserID       string `gorm:"column:user_id;type:varchar(32);uniqueIndex;not null" json:"user_id"`
	Email        string `gorm:"column:email;type:varchar(100);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(100);not null" json:"-"`
	FullName     string `gorm:"column:full_name;type:varchar(100);not null" json:"full_name"`
	// 角色列表，逗号分隔存储：investor,founder,admin,compliance
	Roles  string `gorm:"column:roles;type:varchar(100);not null;default:''" json:"-"`
	Active bool   `gorm:"column:active;not null;default:true" json:"active"`
}

func (User) TableName() string { return "users" }

// NewUser 创建用户
func NewUser(userID, email, passwordHash, fullName string, roles ...string) *User {
	return &User{
		UserID:       userID,
		Email:        email,
		PasswordHash: passwordHash,
		FullName:     fullName,
		Roles:        strings.Join(roles, ","),
		Active:       true,
	}
}

// RoleList 解析角色列表
func (u *User) RoleList() []string {
	if u.Roles == "" {
		return nil
	}
	return strings.Split(u.Roles, ",")
}

// HasRole 判断用户是否持有角色
func (u *User) HasRole(role string) bool {
	for _, r := range u.RoleList() {
		if r == role {
			return true
		}
	}
	return false
}

// GrantRole 授予角色，幂等
func (u *User) GrantRole(role string) {
	if u.HasRole(role) {
		return
	}
	if u.Roles == "" {
		u.Roles = role
		return
	}
	u.Roles = u.Roles + "," + role
}

// UserRepository 用户仓储接口
type UserRepository interface {
	Save(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
