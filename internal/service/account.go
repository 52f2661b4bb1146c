package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/pulsechat/internal/apperr"
	"github.com/lalith-99/pulsechat/internal/auth"
	"github.com/lalith-99/pulsechat/internal/cache"
	"github.com/lalith-99/pulsechat/internal/models"
	"github.com/lalith-99/pulsechat/internal/repository"
	"github.com/lalith-99/pulsechat/internal/repository/cached"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// reservedUsername would share a cache key with the user list.
const reservedUsername = "all"

// unknownUserPassword is hashed once at start-up. Logins for a username
// that does not exist verify against that hash, so they cost what a wrong
// password costs.
const unknownUserPassword = "pulsechat-unknown-user"

// RegisterInput is what a new account is created from.
type RegisterInput struct {
	Username string
	Password string
	Name     string
	Avatar   *string
}

// LoginResult carries both token families. The access token authenticates
// API calls; the channel token is handed to the broker to subscribe.
// Delivered reports whether the online broadcast reached the broker; the
// login itself stands either way.
type LoginResult struct {
	AccessToken  auth.AccessToken  `json:"access_token"`
	TokenType    string            `json:"token_type"`
	User         models.Profile    `json:"user"`
	ChannelToken auth.ChannelToken `json:"channel_token"`
	WSURL        string            `json:"ws_url"`
	Delivered    bool              `json:"delivered"`
}

type AccountConfig struct {
	AccessTokenTTL time.Duration
	WSURL          string
}

// AccountService handles registration, login and the user directory.
type AccountService struct {
	users    repository.UserRepository
	hasher   auth.Hasher
	tokens   *auth.TokenService
	presence *PresenceService
	cache    cached.Cache // optional
	cfg      AccountConfig
	logger   *zap.Logger

	unknownUserHash string
}

// NewAccountService wires the account operations. c may be nil, in which
// case the directory is read from the store every time.
func NewAccountService(
	users repository.UserRepository,
	hasher auth.Hasher,
	tokens *auth.TokenService,
	presence *PresenceService,
	c cached.Cache,
	cfg AccountConfig,
	logger *zap.Logger,
) *AccountService {
	s := &AccountService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		presence: presence,
		cache:    c,
		cfg:      cfg,
		logger:   logger,
	}
	hash, err := hasher.Hash(unknownUserPassword)
	if err != nil {
		logger.Warn("unknown-user hash unavailable, login timing not equalized", zap.Error(err))
	}
	s.unknownUserHash = hash
	return s
}

// Register creates an offline account. Duplicate usernames fail with
// ErrDuplicateUsername, decided by the store.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	switch {
	case username == "":
		return nil, fmt.Errorf("username is required: %w", apperr.ErrInvalidInput)
	case strings.ContainsAny(username, ": \t\n"):
		return nil, fmt.Errorf("username may not contain spaces or ':': %w", apperr.ErrInvalidInput)
	case strings.EqualFold(username, reservedUsername):
		return nil, fmt.Errorf("username %q is reserved: %w", username, apperr.ErrInvalidInput)
	case in.Password == "":
		return nil, fmt.Errorf("password is required: %w", apperr.ErrInvalidInput)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = username
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.users.Create(ctx, models.User{
		ID:           uuid.NewString(),
		Username:     username,
		DisplayName:  name,
		Avatar:       in.Avatar,
		PasswordHash: hash,
		Status:       models.StatusOffline,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", username, err)
	}
	return created, nil
}

// Authenticate checks a username/password pair. Unknown user and wrong
// password are the same ErrInvalidCredentials to the caller.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if u == nil {
		if s.unknownUserHash != "" {
			_ = s.hasher.Verify(s.unknownUserHash, password)
		}
		return nil, apperr.ErrInvalidCredentials
	}
	if err := s.hasher.Verify(u.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Warn("password verify failed", zap.String("username", username), zap.Error(err))
		}
		return nil, apperr.ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates, issues both tokens and marks the user online.
func (s *AccountService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	access, err := s.tokens.IssueAccessToken(u.Username, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	channel, err := s.tokens.IssueChannelToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("issue channel token: %w", err)
	}

	online, delivery, err := s.presence.SetStatus(ctx, u.ID, models.StatusOnline)
	if err != nil {
		return nil, fmt.Errorf("login %q: %w", username, err)
	}

	return &LoginResult{
		AccessToken:  access,
		TokenType:    "bearer",
		User:         online.Profile(),
		ChannelToken: channel,
		WSURL:        s.cfg.WSURL,
		Delivered:    delivery.Delivered(),
	}, nil
}

// ResolveUser turns an access token into the user it names. A valid token
// for a user that no longer exists is ErrUnauthorized.
func (s *AccountService) ResolveUser(ctx context.Context, token auth.AccessToken) (*models.User, error) {
	username, err := s.tokens.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if u == nil {
		return nil, fmt.Errorf("user %q: %w", username, apperr.ErrUnauthorized)
	}
	return u, nil
}

// Users lists every profile except the caller's own, by display name.
func (s *AccountService) Users(ctx context.Context, selfID string) ([]models.Profile, error) {
	all, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	others := lo.Filter(all, func(u models.User, _ int) bool { return u.ID != selfID })
	return lo.Map(others, func(u models.User, _ int) models.Profile { return u.Profile() }), nil
}

// Directory is the profile list behind the contacts view, cached under
// contacts:all. Unlike user:all it never holds password hashes.
func (s *AccountService) Directory(ctx context.Context) ([]models.Profile, error) {
	if s.cache != nil {
		var profiles []models.Profile
		found, err := s.cache.GetJSON(ctx, cache.ContactsKey, &profiles)
		if err != nil {
			s.logger.Warn("directory cache read failed", zap.Error(err))
		}
		if found && profiles != nil {
			return profiles, nil
		}
	}

	all, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}
	profiles := lo.Map(all, func(u models.User, _ int) models.Profile { return u.Profile() })

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.ContactsKey, profiles); err != nil {
			s.logger.Warn("directory cache write failed", zap.Error(err))
		}
	}
	return profiles, nil
}
