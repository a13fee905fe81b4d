package service

import (
	"testing"

	"assetledger/internal/apperror"
	"assetledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeByOffice(t *testing.T) {
	f := newFixture(t)
	office := f.createOffice(t, "Headquarters", "HQ", nil)
	admin := f.createAdmin(t, "hq-admin", office.ID)
	laptops := f.createItem(t, "Laptop")
	chairs := f.createItem(t, "Chair")
	f.purchase(t, admin, laptops, 3)
	f.purchase(t, admin, chairs, 2)

	summary, err := f.inventory.SummarizeByOffice(t.Context(), admin.ID.String(), "")
	require.NoError(t, err)

	assert.Equal(t, office.ID.String(), summary.OfficeID)
	assert.Equal(t, 5, summary.TotalItems)
	require.Len(t, summary.Items, 2)
	assert.Equal(t, 5, summary.OverallStatusBreakdown[model.InstanceAvailable])

	byName := map[string]ItemSummary{}
	for _, s := range summary.Items {
		byName[s.ItemName] = s
	}
	assert.Equal(t, 3, byName["Laptop"].Quantity)
	assert.Equal(t, 2, byName["Chair"].Quantity)
}

func TestListByOfficeRequiresMembership(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	other := f.createOffice(t, "Other", "OT", nil)
	admin := f.createAdmin(t, "hq-admin", hq.ID)
	outsider := f.createUser(t, "ot-staff", model.RoleUser, other.ID)
	item := f.createItem(t, "Phone")
	f.purchase(t, admin, item, 1)

	_, err := f.inventory.ListByOffice(t.Context(), outsider.ID.String(), hq.ID.String())
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))

	instances, err := f.inventory.ListByOffice(t.Context(), admin.ID.String(), "")
	require.NoError(t, err)
	assert.Len(t, instances, 1)
}

func TestChangeInstanceStatus(t *testing.T) {
	f := newFixture(t)
	office := f.createOffice(t, "Headquarters", "HQ", nil)
	admin := f.createAdmin(t, "hq-admin", office.ID)
	item := f.createItem(t, "Drill")
	res := f.purchase(t, admin, item, 1)

	instance, err := f.instanceRepo.FindByBarcode(t.Context(), res.Barcodes[0])
	require.NoError(t, err)
	id := instance.ID.String()

	// AVAILABLE -> DAMAGED writes a confirmed ledger row
	updated, err := f.inventory.ChangeInstanceStatus(t.Context(), admin.ID.String(), id, ChangeInstanceStatusRequest{
		Status:  model.InstanceDamaged,
		Remarks: "dropped",
	})
	require.NoError(t, err)
	assert.Equal(t, model.InstanceDamaged, updated.Status)

	history, err := f.transactionRepo.FindByInstanceID(t.Context(), instance.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.TxTypeDamaged, history[0].TransactionType)
	assert.Equal(t, model.TxConfirmed, history[0].Status)

	// Same status is a no-op error
	_, err = f.inventory.ChangeInstanceStatus(t.Context(), admin.ID.String(), id, ChangeInstanceStatusRequest{Status: model.InstanceDamaged})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalid))

	// DISPOSED is terminal
	_, err = f.inventory.ChangeInstanceStatus(t.Context(), admin.ID.String(), id, ChangeInstanceStatusRequest{Status: model.InstanceDisposed})
	require.NoError(t, err)
	_, err = f.inventory.ChangeInstanceStatus(t.Context(), admin.ID.String(), id, ChangeInstanceStatusRequest{Status: model.InstanceAvailable})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestChangeInstanceStatusRejectsReserved(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	admin := f.createAdmin(t, "hq-admin", hq.ID)
	item := f.createItem(t, "Camera")
	res := f.purchase(t, admin, item, 1)

	_, err := f.distribution.Distribute(t.Context(), admin.ID.String(), DistributeRequest{
		FromOfficeID: hq.ID.String(),
		ToOfficeID:   branch.ID.String(),
		ItemID:       item.ID.String(),
		Quantity:     1,
	})
	require.NoError(t, err)

	instance, err := f.instanceRepo.FindByBarcode(t.Context(), res.Barcodes[0])
	require.NoError(t, err)

	_, err = f.inventory.ChangeInstanceStatus(t.Context(), admin.ID.String(), instance.ID.String(), ChangeInstanceStatusRequest{Status: model.InstanceDamaged})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}
