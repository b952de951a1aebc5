package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials 用户名或密码错误，不区分具体原因
var ErrInvalidCredentials = errors.New("用户名或密码错误")

// Authenticator 校验管理员凭据
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) error
}

// BcryptAuthenticator 使用配置中的用户名与 bcrypt 哈希校验
type BcryptAuthenticator struct {
	username string
	hash     []byte
}

var _ Authenticator = (*BcryptAuthenticator)(nil)

// NewBcryptAuthenticator hash 必须是合法的 bcrypt 哈希
func NewBcryptAuthenticator(username, hash string) (*BcryptAuthenticator, error) {
	if username == "" {
		return nil, fmt.Errorf("admin.username 未配置")
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("admin.password_hash 不是合法的 bcrypt 哈希: %w", err)
	}
	return &BcryptAuthenticator{username: username, hash: []byte(hash)}, nil
}

// Authenticate 用户名不匹配时仍执行一次 bcrypt 比较，使耗时一致
func (a *BcryptAuthenticator) Authenticate(ctx context.Context, username, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(a.hash, []byte(password))
	if !userOK || passErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}
