package service

import (
	"testing"

	"assetledger/internal/apperror"
	"assetledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOfficeWithInventory(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	admin := f.createAdmin(t, "hq-admin", hq.ID)

	created, err := f.offices.Create(t.Context(), admin.ID.String(), CreateOfficeRequest{
		Name:     "North Branch",
		Code:     "nb",
		ParentID: hq.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "NB", created.Code, "codes are stored uppercased")
	require.NotNil(t, created.ParentID)
	assert.Equal(t, hq.ID.String(), *created.ParentID)
	assert.Equal(t, "Headquarters", created.ParentName)

	// The inventory exists immediately
	var office model.Office
	require.NoError(t, f.db.First(&office, "code = ?", "NB").Error)
	_, err = f.officeRepo.FindInventoryByOfficeID(t.Context(), office.ID)
	require.NoError(t, err)
}

func TestCreateOfficeValidation(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	admin := f.createAdmin(t, "hq-admin", hq.ID)
	staff := f.createUser(t, "hq-staff", model.RoleUser, hq.ID)

	t.Run("non-admin", func(t *testing.T) {
		_, err := f.offices.Create(t.Context(), staff.ID.String(), CreateOfficeRequest{Name: "X", Code: "X1"})
		assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := f.offices.Create(t.Context(), admin.ID.String(), CreateOfficeRequest{
			Name:     "X",
			Code:     "X1",
			ParentID: "22222222-2222-2222-2222-222222222222",
		})
		assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	})
}

func TestCatalogCreateItem(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	admin := f.createAdmin(t, "hq-admin", hq.ID)

	category, err := f.catalog.CreateCategory(t.Context(), admin.ID.String(), CreateCategoryRequest{Name: "Electronics"})
	require.NoError(t, err)
	unit, err := f.catalog.CreateUnit(t.Context(), admin.ID.String(), CreateUnitRequest{Name: "piece"})
	require.NoError(t, err)

	item, err := f.catalog.CreateItem(t.Context(), admin.ID.String(), CreateCatalogItemRequest{
		Name:       "Laptop",
		CategoryID: category.ID.String(),
		UnitID:     unit.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Electronics", item.Category)
	assert.Equal(t, "piece", item.Unit)

	// Names are unique across the catalog
	_, err = f.catalog.CreateItem(t.Context(), admin.ID.String(), CreateCatalogItemRequest{
		Name:       "Laptop",
		CategoryID: category.ID.String(),
		UnitID:     unit.ID.String(),
	})
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
}
