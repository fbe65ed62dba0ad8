package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"firestrike/internal/auth"
	"firestrike/internal/config"
	"firestrike/internal/events"
	"firestrike/internal/model"
	"firestrike/internal/repository"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type AuthService struct {
	tx       Transactor
	profiles ProfileRepository
	wallets  WalletRepository
	sessions SessionStore
	tokens   *auth.TokenIssuer
	bus      *events.Bus
	cfg      *config.Config
	now      func() time.Time
}

func NewAuthService(tx Transactor, profiles ProfileRepository, wallets WalletRepository, sessions SessionStore, tokens *auth.TokenIssuer, bus *events.Bus, cfg *config.Config) *AuthService {
	return &AuthService{
		tx:       tx,
		profiles: profiles,
		wallets:  wallets,
		sessions: sessions,
		tokens:   tokens,
		bus:      bus,
		cfg:      cfg,
		now:      time.Now,
	}
}

type SignUpRequest struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// SignUp 注册并创建空钱包，返回登录会话
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*auth.Session, *model.Profile, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, nil, fmt.Errorf("%w: 密码至少 %d 位", ErrInvalidInput, minPasswordLength)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, fmt.Errorf("%w: name", ErrInvalidInput)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("密码加密失败: %w", err)
	}

	p := &model.Profile{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		IsAdmin:      s.cfg.Auth.IsAdminEmail(email),
		PasswordHash: hash,
		AuthProvider: model.AuthProviderPassword,
	}
	if err := s.createWithWallet(ctx, p); err != nil {
		return nil, nil, err
	}

	sess, err := s.issue(p, events.AuthSignedIn)
	if err != nil {
		return nil, nil, err
	}
	log.WithFields(log.Fields{"user_id": p.ID, "email": p.Email}).Info("用户注册成功")
	return sess, p, nil
}

// SignIn 邮箱密码登录，邮箱不存在和密码错误返回同一个错误
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*auth.Session, *model.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	p, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !auth.CheckPasswordHash(password, p.PasswordHash) {
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := s.issue(p, events.AuthSignedIn)
	if err != nil {
		return nil, nil, err
	}
	return sess, p, nil
}

type OAuthIdentity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// SignInWithOAuth 网关完成第三方授权后调用，按邮箱关联或创建用户
func (s *AuthService) SignInWithOAuth(ctx context.Context, id OAuthIdentity) (*auth.Session, *model.Profile, error) {
	if id.Provider == "" || id.Subject == "" {
		return nil, nil, fmt.Errorf("%w: provider 和 subject 不能为空", ErrInvalidInput)
	}
	email, err := normalizeEmail(id.Email)
	if err != nil {
		return nil, nil, err
	}

	p, err := s.profiles.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrProfileNotFound):
		name := strings.TrimSpace(id.Name)
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		p = &model.Profile{
			Name:            name,
			Email:           email,
			IsAdmin:         s.cfg.Auth.IsAdminEmail(email),
			AuthProvider:    id.Provider,
			ProviderSubject: id.Subject,
		}
		if err := s.createWithWallet(ctx, p); err != nil {
			return nil, nil, err
		}
	case err != nil:
		return nil, nil, err
	case p.ProviderSubject == "":
		if err := s.profiles.UpdateFields(ctx, p.ID, map[string]interface{}{
			"auth_provider":    id.Provider,
			"provider_subject": id.Subject,
		}); err != nil {
			return nil, nil, err
		}
		p.AuthProvider = id.Provider
		p.ProviderSubject = id.Subject
	case p.AuthProvider != id.Provider || p.ProviderSubject != id.Subject:
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := s.issue(p, events.AuthSignedIn)
	if err != nil {
		return nil, nil, err
	}
	return sess, p, nil
}

// SignOut 注销会话，token 在剩余有效期内不可再用
func (s *AuthService) SignOut(ctx context.Context, sess *auth.Session) error {
	if sess == nil {
		return ErrUnauthenticated
	}
	if err := s.sessions.Revoke(ctx, sess.ID, sess.TTL(s.now())); err != nil {
		return fmt.Errorf("注销会话失败: %w", err)
	}
	s.emit(sess.UserID, sess.ID, events.AuthSignedOut)
	return nil
}

// Refresh 注销旧会话并签发新会话
func (s *AuthService) Refresh(ctx context.Context, sess *auth.Session) (*auth.Session, error) {
	if sess == nil {
		return nil, ErrUnauthenticated
	}
	p, err := s.profiles.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if err := s.sessions.Revoke(ctx, sess.ID, sess.TTL(s.now())); err != nil {
		return nil, fmt.Errorf("注销会话失败: %w", err)
	}
	return s.issue(p, events.AuthTokenRefreshed)
}

// Authenticate 校验 token，管理员标记以数据库当前值为准
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Session, error) {
	sess, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	revoked, err := s.sessions.IsRevoked(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("查询会话状态失败: %w", err)
	}
	if revoked {
		return nil, ErrUnauthenticated
	}

	p, err := s.profiles.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	sess.IsAdmin = p.IsAdmin
	sess.Email = p.Email
	return sess, nil
}

// OnAuthStateChange 订阅会话状态变化，返回取消订阅函数
func (s *AuthService) OnAuthStateChange(fn func(ctx context.Context, ev events.AuthStateChangedEvent)) func() {
	return s.bus.Subscribe(events.EventTypeAuthStateChanged, func(ctx context.Context, e events.Event) {
		if ev, ok := e.(events.AuthStateChangedEvent); ok {
			fn(ctx, ev)
		}
	})
}

func (s *AuthService) createWithWallet(ctx context.Context, p *model.Profile) error {
	return s.tx.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.profiles.Create(ctx, tx, p); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrEmailTaken
			}
			return fmt.Errorf("创建用户失败: %w", err)
		}
		if _, err := s.wallets.GetOrCreate(ctx, tx, p.ID); err != nil {
			return fmt.Errorf("创建钱包失败: %w", err)
		}
		return nil
	})
}

func (s *AuthService) issue(p *model.Profile, ev events.AuthEvent) (*auth.Session, error) {
	sess, err := s.tokens.Issue(p.ID, p.Email, p.IsAdmin)
	if err != nil {
		return nil, err
	}
	s.emit(p.ID, sess.ID, ev)
	return sess, nil
}

func (s *AuthService) emit(userID int64, sessionID string, ev events.AuthEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.AuthStateChangedEvent{
		Event:     ev,
		UserID:    userID,
		SessionID: sessionID,
		At:        s.now().UTC(),
	})
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email", ErrInvalidInput)
	}
	return email, nil
}
