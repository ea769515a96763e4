package auth

import (
	"context"
	"errors"
	"strings"

	"jawara/pkg/types"

	"github.com/sirupsen/logrus"
)

type Users interface {
	User(ctx context.Context, userID string) (*types.User, error)
	UserByEmail(ctx context.Context, email string) (*types.User, error)
	Create(ctx context.Context, user *types.User) error
}

// Service is the account directory: registration, login and profile lookup.
type Service struct {
	logger     *logrus.Logger
	users      Users
	tokens     *TokenIssuer
	bcryptCost int
}

func NewService(logger *logrus.Logger, users Users, tokens *TokenIssuer, bcryptCost int) *Service {
	return &Service{
		logger:     logger,
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
	}
}

type RegisterInput struct {
	Nama         string `json:"nama" form:"nama"`
	Email        string `json:"email" form:"email"`
	Password     string `json:"password" form:"password"`
	NomorTelefon string `json:"nomor_telefon" form:"nomor_telefon"`
	Role         string `json:"role" form:"role"`
}

// Session is an account together with a freshly issued token.
type Session struct {
	User  *types.User `json:"user"`
	Token string      `json:"token"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Nama = strings.TrimSpace(in.Nama)
	in.Email = strings.TrimSpace(in.Email)

	if in.Nama == "" || in.Email == "" || in.Password == "" {
		return nil, types.ValidationError("Nama, email, and password are required")
	}

	role := types.RoleWarga
	if in.Role != "" {
		role = types.Role(in.Role)
		if !role.Valid() {
			return nil, types.ValidationError("Invalid role. Must be one of: " + joinRoles(types.AllRoles))
		}
	}

	_, err := s.users.UserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, types.ConflictError("Email already registered", nil)
	case !errors.Is(err, types.ErrUserNotFound):
		return nil, err
	}

	hash, err := HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &types.User{
		Nama:     in.Nama,
		Email:    in.Email,
		Password: hash,
		Role:     role,
	}
	if in.NomorTelefon != "" {
		phone := in.NomorTelefon
		user.NomorTelefon = &phone
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, types.ErrDuplicate) {
			return nil, types.ConflictError("Email already registered", nil)
		}
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("user registered")

	return s.session(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, types.ValidationError("Email and password are required")
	}

	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, &types.AppError{Kind: types.KindUnauthorized, Message: "Invalid email or password", Err: types.ErrInvalidCredentials}
		}
		return nil, err
	}

	if !CheckPassword(password, user.Password) {
		return nil, &types.AppError{Kind: types.KindUnauthorized, Message: "Invalid email or password", Err: types.ErrInvalidCredentials}
	}

	return s.session(user)
}

func (s *Service) Profile(ctx context.Context, userID string) (*types.User, error) {
	user, err := s.users.User(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, types.NotFoundError("User not found", err)
		}
		return nil, err
	}
	return user, nil
}

// Authenticate resolves a bearer token to its claims.
func (s *Service) Authenticate(raw string) (*Claims, error) {
	return s.tokens.Parse(raw)
}

func (s *Service) session(user *types.User) (*Session, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

func joinRoles(roles []types.Role) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
