package service

import (
	"testing"

	"assetledger/internal/apperror"
	"assetledger/internal/middleware"
	"assetledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(f *fixture) UserService {
	return NewUserService(f.identity, f.userRepo, f.officeRepo, f.auditRepo, f.txManager, middleware.GetJWTSecret())
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	admin := f.createAdmin(t, "hq-admin", hq.ID)

	created, err := users.Register(t.Context(), admin.ID.String(), RegisterUserRequest{
		Username: "br-staff",
		Email:    "br-staff@example.com",
		FullName: "Branch Staff",
		Password: "hunter22",
		Role:     model.RoleUser,
		OfficeID: branch.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, created.Role)
	assert.Equal(t, branch.ID.String(), created.OfficeID)

	// The audit trail records the registration alongside the user row
	var audit model.AuditLog
	require.NoError(t, f.db.Where("action = ?", model.ActionRegisterUser).First(&audit).Error)
	assert.Equal(t, created.ID, audit.EntityID)

	tokens, err := users.Login(t.Context(), LoginUserRequest{
		Email:    "br-staff@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.Token)
	assert.NotEmpty(t, tokens.RefreshToken)

	_, err = users.Login(t.Context(), LoginUserRequest{
		Email:    "br-staff@example.com",
		Password: "wrong",
	})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestRegisterRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	staff := f.createUser(t, "hq-staff", model.RoleUser, hq.ID)

	_, err := users.Register(t.Context(), staff.ID.String(), RegisterUserRequest{
		Username: "intruder",
		Email:    "intruder@example.com",
		FullName: "Intruder",
		Password: "hunter22",
		Role:     model.RoleUser,
		OfficeID: hq.ID.String(),
	})
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	admin := f.createAdmin(t, "hq-admin", hq.ID)

	req := RegisterUserRequest{
		Username: "dupe",
		Email:    "dupe@example.com",
		FullName: "Dupe",
		Password: "hunter22",
		Role:     model.RoleUser,
		OfficeID: hq.ID.String(),
	}
	_, err := users.Register(t.Context(), admin.ID.String(), req)
	require.NoError(t, err)

	_, err = users.Register(t.Context(), admin.ID.String(), req)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	f.createAdmin(t, "hq-admin", hq.ID)

	tokens, err := users.Login(t.Context(), LoginUserRequest{
		Email:    "hq-admin@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	rotated, err := users.Refresh(t.Context(), RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	// The old refresh token is spent
	_, err = users.Refresh(t.Context(), RefreshRequest{RefreshToken: tokens.RefreshToken})
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}

func TestMeReturnsPrincipal(t *testing.T) {
	f := newFixture(t)
	users := newUserService(f)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	admin := f.createAdmin(t, "hq-admin", hq.ID)

	me, err := users.Me(t.Context(), admin.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "hq-admin", me.Username)
	assert.Equal(t, model.RoleAdmin, me.Role)
	assert.Equal(t, hq.ID.String(), me.OfficeID)

	_, err = users.Me(t.Context(), "not-a-uuid")
	assert.True(t, apperror.IsKind(err, apperror.KindUnauthorized))
}
