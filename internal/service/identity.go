package service

import (
	"context"
	"errors"
	"strings"

	"assetledger/internal/apperror"
	"assetledger/internal/model"
	"assetledger/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Principal is the resolved calling identity: who they are, which office they
// act for and the role that gates what they may do.
type Principal struct {
	UserID   uuid.UUID
	OfficeID uuid.UUID
	RoleName string
	User     *model.User
}

// IsAdmin compares role names case-insensitively; the canonical stored form
// is "Admin" but older tokens carried "ADMIN".
func (p *Principal) IsAdmin() bool {
	return strings.EqualFold(p.RoleName, model.RoleAdmin)
}

// SameOffice reports whether the principal acts for the given office
func (p *Principal) SameOffice(officeID uuid.UUID) bool {
	return p.OfficeID == officeID
}

// AdminOf reports whether the principal is an admin of the given office
func (p *Principal) AdminOf(officeID uuid.UUID) bool {
	return p.SameOffice(officeID) && p.IsAdmin()
}

// IdentityService resolves principal ids supplied by the transport layer.
// The core never sees credentials, only the authenticated user id.
type IdentityService interface {
	Resolve(ctx context.Context, userID string) (*Principal, error)
}

type identityService struct {
	userRepo repository.UserRepository
}

func NewIdentityService(userRepo repository.UserRepository) IdentityService {
	return &identityService{userRepo: userRepo}
}

func (s *identityService) Resolve(ctx context.Context, userID string) (*Principal, error) {
	if userID == "" {
		return nil, apperror.Unauthorized("missing principal")
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Unauthorized("invalid principal id")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("unknown principal")
		}
		return nil, err
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}

	return &Principal{
		UserID:   user.ID,
		OfficeID: user.OfficeID,
		RoleName: roleName,
		User:     user,
	}, nil
}

// requireAdminOf fails with Forbidden unless the principal is an admin of the
// given office.
func requireAdminOf(p *Principal, officeID uuid.UUID, action string) error {
	if !p.AdminOf(officeID) {
		return apperror.Forbidden("only admins of the office can %s", action)
	}
	return nil
}

// requireSameOfficeOrAdmin fails with Forbidden unless the principal belongs
// to the office or holds the admin role anywhere.
func requireSameOfficeOrAdmin(p *Principal, officeID uuid.UUID, action string) error {
	if !p.SameOffice(officeID) && !p.IsAdmin() {
		return apperror.Forbidden("you can only %s for your own office", action)
	}
	return nil
}
