package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"codenest/internal/domain"
	"codenest/internal/platform/logger"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

type TokenStore interface {
	SaveRefresh(ctx context.Context, userID string, refreshToken string) error
	ConsumeRefresh(ctx context.Context, refreshToken string) (string, error)
	RevokeRefresh(ctx context.Context, refreshToken string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
	NeedsRehash(hash string) bool
}

type TokenManager interface {
	Generate(userID string) (string, string, error)
	ValidateAccessToken(token string) (string, error)
	ValidateRefreshToken(token string) (string, error)
}

type Tokens struct {
	Access  string
	Refresh string
}

type AuthUseCase struct {
	userRepo     UserRepository
	tokenCache   TokenStore
	hasher       PasswordHasher
	tokenManager TokenManager
	log          *logger.Logger
}

func NewAuthUseCase(ur UserRepository, tc TokenStore, h PasswordHasher, tm TokenManager, log *logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     ur,
		tokenCache:   tc,
		hasher:       h,
		tokenManager: tm,
		log:          log,
	}
}

// Register заводит пользователя; прогресс создаётся в той же транзакции
func (uc *AuthUseCase) Register(ctx context.Context, username, email, password string, language domain.Language) (*domain.User, error) {
	hash, err := uc.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:                uuid.New(),
		Username:          strings.TrimSpace(username),
		Email:             strings.ToLower(strings.TrimSpace(email)),
		Password:          hash,
		PreferredLanguage: language,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*domain.User, Tokens, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, Tokens{}, domain.ErrInvalidCredentials
		}
		return nil, Tokens{}, err
	}
	if err := uc.hasher.Compare(user.Password, password); err != nil {
		if !errors.Is(err, domain.ErrInvalidCredentials) {
			uc.log.Warn("stored password hash is unusable", "user_id", user.ID, "error", err)
		}
		return nil, Tokens{}, domain.ErrInvalidCredentials
	}
	uc.upgradeHash(ctx, user, password)

	tokens, err := uc.generateAndSaveTokens(ctx, user.ID.String())
	if err != nil {
		return nil, Tokens{}, err
	}
	return user, tokens, nil
}

// Refresh меняет refresh-токен на новую пару, старый сразу отзывается
func (uc *AuthUseCase) Refresh(ctx context.Context, oldRefreshToken string) (Tokens, error) {
	userID, err := uc.tokenManager.ValidateRefreshToken(oldRefreshToken)
	if err != nil {
		return Tokens{}, err
	}

	// Токен забирается одной операцией: повторная ротация того же токена не пройдёт
	cachedID, err := uc.tokenCache.ConsumeRefresh(ctx, oldRefreshToken)
	if err != nil {
		return Tokens{}, err
	}
	if cachedID != userID {
		return Tokens{}, domain.ErrInvalidToken
	}

	return uc.generateAndSaveTokens(ctx, userID)
}

func (uc *AuthUseCase) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return uc.tokenCache.RevokeRefresh(ctx, refreshToken)
}

// upgradeHash пересчитывает хеш, если поменялась стоимость bcrypt. Ошибка входу не мешает.
func (uc *AuthUseCase) upgradeHash(ctx context.Context, user *domain.User, password string) {
	if !uc.hasher.NeedsRehash(user.Password) {
		return
	}
	hash, err := uc.hasher.Hash(password)
	if err == nil {
		err = uc.userRepo.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		uc.log.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	user.Password = hash
}

// ValidateAccess: для middleware: токен -> id пользователя
func (uc *AuthUseCase) ValidateAccess(token string) (uuid.UUID, error) {
	sub, err := uc.tokenManager.ValidateAccessToken(token)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return id, nil
}

func (uc *AuthUseCase) generateAndSaveTokens(ctx context.Context, userID string) (Tokens, error) {
	access, refresh, err := uc.tokenManager.Generate(userID)
	if err != nil {
		return Tokens{}, err
	}
	if err := uc.tokenCache.SaveRefresh(ctx, userID, refresh); err != nil {
		return Tokens{}, err
	}
	return Tokens{Access: access, Refresh: refresh}, nil
}
