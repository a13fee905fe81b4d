package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"assetledger/internal/apperror"
	"assetledger/internal/model"
	"assetledger/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for request validation

type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"full_name" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
	OfficeID string `json:"office_id" binding:"required"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// UserResponse returns a user without exposing sensitive data
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	OfficeID string `json:"office_id"`
	Office   string `json:"office,omitempty"`
}

type UserService interface {
	// Register creates a user in an office. Any admin may create accounts,
	// which is how a new branch gets its first admin.
	Register(ctx context.Context, callerID string, req RegisterUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*UserResponse, error)
}

type userService struct {
	identity   IdentityService
	repo       repository.UserRepository
	officeRepo repository.OfficeRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewUserService(
	identity IdentityService,
	repo repository.UserRepository,
	officeRepo repository.OfficeRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	jwtSecret []byte,
) UserService {
	return &userService{
		identity:   identity,
		repo:       repo,
		officeRepo: officeRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		jwtSecret:  jwtSecret,
		accessTTL:  time.Hour,
		refreshTTL: 30 * 24 * time.Hour,
	}
}

func toUserResponse(user *model.User) *UserResponse {
	resp := &UserResponse{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		FullName: user.FullName,
		OfficeID: user.OfficeID.String(),
	}
	if user.Role != nil {
		resp.Role = user.Role.Name
	}
	if user.Office != nil {
		resp.Office = user.Office.Name
	}
	return resp
}

func (s *userService) Register(ctx context.Context, callerID string, req RegisterUserRequest) (*UserResponse, error) {
	principal, err := s.identity.Resolve(ctx, callerID)
	if err != nil {
		return nil, err
	}

	// Any admin may create accounts; otherwise a branch could never get its
	// first admin.
	if !principal.IsAdmin() {
		return nil, apperror.Forbidden("only admins can register users")
	}
	officeID, err := uuid.Parse(req.OfficeID)
	if err != nil {
		return nil, apperror.Invalid("invalid office id")
	}

	role, err := s.repo.GetRoleByName(ctx, req.Role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Invalid("unknown role %q", req.Role)
		}
		return nil, err
	}
	if _, err := s.officeRepo.FindByID(ctx, officeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("office not found")
		}
		return nil, err
	}

	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperror.Conflict("username already exists")
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Conflict("email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: string(hashed),
		RoleID:   role.ID,
		OfficeID: officeID,
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return err
		}
		callerRef := principal.UserID
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &callerRef,
			Action:     model.ActionRegisterUser,
			EntityID:   user.ID.String(),
			EntityName: user.Username,
		})
	})
	if err != nil {
		return nil, err
	}

	user.Role = role
	return toUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	stored, err := s.repo.GetRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}
	if timeNow().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, stored.Token)
		return nil, apperror.Unauthorized("refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperror.Unauthorized("invalid refresh token")
	}

	// Rotate: the presented token is single-use
	if err := s.repo.DeleteRefreshToken(ctx, stored.Token); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.repo.DeleteRefreshToken(ctx, refreshToken)
}

func (s *userService) Me(ctx context.Context, userID string) (*UserResponse, error) {
	principal, err := s.identity.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(principal.User), nil
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}

	now := timeNow()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    user.ID.String(),
		"role":   roleName,
		"office": user.OfficeID.String(),
		"iat":    now.Unix(),
		"exp":    now.Add(s.accessTTL).Unix(),
	})
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: now.Add(s.refreshTTL),
	}); err != nil {
		return nil, err
	}

	return &TokenResponse{Token: signed, RefreshToken: refresh}, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
