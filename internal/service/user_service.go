package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"servicehub/internal/domain"
	"servicehub/internal/media"
	"servicehub/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// MinPasswordLength is the shortest password accepted on register or update
	MinPasswordLength = 6

	// DefaultTokenExpiration applies when no expiry is configured
	DefaultTokenExpiration = 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// RegisterInput carries the fields of a new account
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Phone    string
	Role     domain.Role
}

// UserService defines the interface for identity business logic
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// CreateAdmin creates an admin account. Registration never can.
	CreateAdmin(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	ValidateToken(tokenString string) (*Claims, error)
	// Authenticate resolves the current identity behind a token
	Authenticate(ctx context.Context, tokenString string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, actor *domain.User, patch domain.ProfilePatch) (*domain.User, error)
	UploadProfilePicture(ctx context.Context, actor *domain.User, file media.File) (*domain.User, error)
	DeleteProfilePicture(ctx context.Context, actor *domain.User) (*domain.User, error)
	ChangeRole(ctx context.Context, actor *domain.User, userID string, role domain.Role) (*domain.User, error)
	ChangeAccountStatus(ctx context.Context, actor *domain.User, userID string, status domain.AccountStatus) (*domain.User, error)
	ListByRole(ctx context.Context, actor *domain.User, role domain.Role) ([]*domain.User, error)
}

// Claims represents the JWT claims
type Claims struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

type userService struct {
	userRepo  repository.UserRepository
	media     *media.Manager
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewUserService creates a new instance of UserService
func NewUserService(
	userRepo repository.UserRepository,
	mediaManager *media.Manager,
	jwtSecret string,
	tokenTTL time.Duration,
	logger *zap.Logger,
) UserService {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenExpiration
	}
	return &userService{
		userRepo:  userRepo,
		media:     mediaManager,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// Register creates a customer or provider account with a hashed password
func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Role != domain.RoleCustomer && in.Role != domain.RoleProvider {
		return nil, domain.InvalidArgument("role must be customer or provider")
	}
	return s.create(ctx, in)
}

func (s *userService) CreateAdmin(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Role = domain.RoleAdmin
	return s.create(ctx, in)
}

func (s *userService) create(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" ||
		strings.TrimSpace(in.Address) == "" || strings.TrimSpace(in.Phone) == "" {
		return nil, domain.InvalidArgument("all fields are required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, domain.InvalidArgument(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	existing, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, domain.Internal("failed to check existing user", err)
	}
	if existing != nil {
		return nil, domain.Conflict("user already exists")
	}

	hashedPassword, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, domain.Internal("failed to hash password", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:          strings.TrimSpace(in.Name),
		Email:         strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash:  hashedPassword,
		Address:       in.Address,
		Phone:         in.Phone,
		Role:          in.Role,
		AccountStatus: domain.AccountActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Conflict("user already exists")
		}
		return nil, domain.Internal("failed to create user", err)
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login authenticates a user and returns a signed access token
func (s *userService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, domain.Unauthenticated(ErrInvalidCredentials.Error())
		}
		return "", nil, domain.Internal("failed to find user", err)
	}

	if err := s.verifyPassword(user.PasswordHash, password); err != nil {
		return "", nil, domain.Unauthenticated(ErrInvalidCredentials.Error())
	}

	if user.AccountStatus == domain.AccountSuspended {
		return "", nil, domain.Forbidden("account is suspended")
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return "", nil, domain.Internal("failed to generate access token", err)
	}

	return token, user, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *userService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Authenticate validates the token and loads the subject's current record.
// Every failure is reported the same way.
func (s *userService) Authenticate(ctx context.Context, tokenString string) (*domain.User, error) {
	unauthorized := domain.Unauthenticated("unauthorized")

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, unauthorized
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, unauthorized
		}
		return nil, domain.Internal("failed to load user", err)
	}
	if user.AccountStatus == domain.AccountSuspended {
		return nil, unauthorized
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

// UpdateProfile applies the actor's own allow-listed profile changes
func (s *userService) UpdateProfile(ctx context.Context, actor *domain.User, patch domain.ProfilePatch) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, domain.InvalidArgument("no fields to update")
	}

	upd := domain.UserUpdate{
		Name:    patch.Name,
		Address: patch.Address,
		Phone:   patch.Phone,
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email == "" {
			return nil, domain.InvalidArgument("email must not be empty")
		}
		upd.Email = &email
	}
	if patch.Password != nil {
		if len(*patch.Password) < MinPasswordLength {
			return nil, domain.InvalidArgument(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
		}
		hashed, err := s.hashPassword(*patch.Password)
		if err != nil {
			return nil, domain.Internal("failed to hash password", err)
		}
		upd.PasswordHash = &hashed
	}

	user, err := s.userRepo.Update(ctx, actor.ID, upd)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

// UploadProfilePicture stores a new picture and releases the previous one
func (s *userService) UploadProfilePicture(ctx context.Context, actor *domain.User, file media.File) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	ref, err := s.media.Accept(ctx, media.ProfilePolicy, file)
	if err != nil {
		return nil, err
	}

	pic := &ref
	user, err := s.userRepo.Update(ctx, actor.ID, domain.UserUpdate{ProfilePicture: &pic})
	if err != nil {
		s.media.Compensate(ctx, []domain.MediaRef{ref}, err)
		return nil, storeError(err, "user")
	}

	if actor.ProfilePicture != nil {
		s.media.Cleanup(ctx, *actor.ProfilePicture)
	}
	return user, nil
}

// DeleteProfilePicture releases and clears the actor's picture
func (s *userService) DeleteProfilePicture(ctx context.Context, actor *domain.User) (*domain.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.ProfilePicture == nil {
		return nil, domain.InvalidArgument("no profile picture to delete")
	}

	old := *actor.ProfilePicture
	var cleared *domain.MediaRef
	user, err := s.userRepo.Update(ctx, actor.ID, domain.UserUpdate{ProfilePicture: &cleared})
	if err != nil {
		return nil, storeError(err, "user")
	}

	s.media.Cleanup(ctx, old)
	return user, nil
}

// ChangeRole sets the role of any user. Admin only.
func (s *userService) ChangeRole(ctx context.Context, actor *domain.User, userID string, role domain.Role) (*domain.User, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, domain.InvalidArgument("invalid role")
	}

	user, err := s.userRepo.Update(ctx, userID, domain.UserUpdate{Role: &role})
	if err != nil {
		return nil, storeError(err, "user")
	}

	s.logger.Info("User role changed",
		zap.String("user_id", userID),
		zap.String("role", string(role)),
		zap.String("changed_by", actor.ID),
	)
	return user, nil
}

// ChangeAccountStatus activates or suspends an account. Admin only.
func (s *userService) ChangeAccountStatus(ctx context.Context, actor *domain.User, userID string, status domain.AccountStatus) (*domain.User, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.InvalidArgument("invalid account status")
	}

	user, err := s.userRepo.Update(ctx, userID, domain.UserUpdate{AccountStatus: &status})
	if err != nil {
		return nil, storeError(err, "user")
	}
	return user, nil
}

// ListByRole lists customers or providers. Admin only.
func (s *userService) ListByRole(ctx context.Context, actor *domain.User, role domain.Role) ([]*domain.User, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListByRole(ctx, role)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return users, nil
}

// hashPassword hashes a password using bcrypt with cost factor 10
func (s *userService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// verifyPassword verifies a password against a bcrypt hash
func (s *userService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// generateAccessToken generates a JWT access token with user ID and role claims
func (s *userService) generateAccessToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
