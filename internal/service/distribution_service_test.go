package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"assetledger/internal/apperror"
	"assetledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistributeReservesInstances(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	admin := f.createAdmin(t, "hq-admin", hq.ID)
	item := f.createItem(t, "Printer")
	f.purchase(t, admin, item, 5)

	transactions, err := f.distribution.Distribute(t.Context(), admin.ID.String(), DistributeRequest{
		FromOfficeID: hq.ID.String(),
		ToOfficeID:   branch.ID.String(),
		ItemID:       item.ID.String(),
		Quantity:     2,
	})
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	for _, tx := range transactions {
		assert.Equal(t, model.TxPending, tx.Status)
		assert.Equal(t, model.TxTypeDistribution, tx.TransactionType)

		// Reserved instances stay in the sender's inventory as IN_USE
		instance, err := f.instanceRepo.FindByBarcode(t.Context(), tx.Barcode)
		require.NoError(t, err)
		assert.Equal(t, model.InstanceInUse, instance.Status)
		assert.Equal(t, hq.ID, instance.OwnerOfficeID)
	}

	// The other three units are untouched
	inv, err := f.officeRepo.FindInventoryByOfficeID(t.Context(), hq.ID)
	require.NoError(t, err)
	available, err := f.instanceRepo.CountAvailable(t.Context(), inv.ID, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, available)
}

func TestDistributeInsufficientIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	admin := f.createAdmin(t, "hq-admin", hq.ID)
	item := f.createItem(t, "Scanner")
	f.purchase(t, admin, item, 2)

	_, err := f.distribution.Distribute(t.Context(), admin.ID.String(), DistributeRequest{
		FromOfficeID: hq.ID.String(),
		ToOfficeID:   branch.ID.String(),
		ItemID:       item.ID.String(),
		Quantity:     5,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindInsufficient))
	assert.Contains(t, err.Error(), "Requested: 5, Available: 2")

	// Nothing was reserved and no transactions were written
	inv, err := f.officeRepo.FindInventoryByOfficeID(t.Context(), hq.ID)
	require.NoError(t, err)
	available, err := f.instanceRepo.CountAvailable(t.Context(), inv.ID, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, available)

	pending, err := f.transactionRepo.FindPendingByToOfficeID(t.Context(), branch.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDistributeOnlyToDirectChild(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	grandchild := f.createOffice(t, "Desk", "DK", &branch.ID)
	sibling := f.createOffice(t, "Sibling", "SB", &hq.ID)
	admin := f.createAdmin(t, "hq-admin", hq.ID)
	item := f.createItem(t, "Router")
	f.purchase(t, admin, item, 4)

	for name, target := range map[string]string{
		"grandchild": grandchild.ID.String(),
		"self":       hq.ID.String(),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.distribution.Distribute(t.Context(), admin.ID.String(), DistributeRequest{
				FromOfficeID: hq.ID.String(),
				ToOfficeID:   target,
				ItemID:       item.ID.String(),
				Quantity:     1,
			})
			assert.True(t, apperror.IsKind(err, apperror.KindInvalid))
		})
	}

	// Direct children are fine, including several of them
	for _, target := range []string{branch.ID.String(), sibling.ID.String()} {
		_, err := f.distribution.Distribute(t.Context(), admin.ID.String(), DistributeRequest{
			FromOfficeID: hq.ID.String(),
			ToOfficeID:   target,
			ItemID:       item.ID.String(),
			Quantity:     1,
		})
		require.NoError(t, err)
	}
}

// A distribution started inside an enclosing transaction must roll back with
// it. Request fulfillment relies on this: when anything after the shipment
// fails, no reservations or pending transfers may survive.
func TestDistributeJoinsEnclosingTransaction(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	admin := f.createAdmin(t, "hq-admin", hq.ID)
	item := f.createItem(t, "Monitor")
	f.purchase(t, admin, item, 5)

	failure := errors.New("audit write failed")
	err := f.txManager.RunInTx(t.Context(), func(txCtx context.Context) error {
		_, err := f.distribution.Distribute(txCtx, admin.ID.String(), DistributeRequest{
			FromOfficeID: hq.ID.String(),
			ToOfficeID:   branch.ID.String(),
			ItemID:       item.ID.String(),
			Quantity:     4,
		})
		require.NoError(t, err)
		return failure
	})
	require.ErrorIs(t, err, failure)

	// Everything rolled back: no pending transfers, nothing reserved
	pending, err := f.transactionRepo.FindPendingByToOfficeID(t.Context(), branch.ID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	inv, err := f.officeRepo.FindInventoryByOfficeID(t.Context(), hq.ID)
	require.NoError(t, err)
	available, err := f.instanceRepo.CountAvailable(t.Context(), inv.ID, item.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, available)
}

func TestConfirmMovesCustody(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	hqAdmin := f.createAdmin(t, "hq-admin", hq.ID)
	branchAdmin := f.createAdmin(t, "br-admin", branch.ID)
	item := f.createItem(t, "Desk Chair")
	f.purchase(t, hqAdmin, item, 1)

	transactions, err := f.distribution.Distribute(t.Context(), hqAdmin.ID.String(), DistributeRequest{
		FromOfficeID: hq.ID.String(),
		ToOfficeID:   branch.ID.String(),
		ItemID:       item.ID.String(),
		Quantity:     1,
	})
	require.NoError(t, err)

	confirmed, err := f.distribution.Confirm(t.Context(), branchAdmin.ID.String(), transactions[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedDate)

	// Instance now lives in the branch inventory, available again
	instance, err := f.instanceRepo.FindByBarcode(t.Context(), transactions[0].Barcode)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceAvailable, instance.Status)
	assert.Equal(t, branch.ID, instance.OwnerOfficeID)

	branchInv, err := f.officeRepo.FindInventoryByOfficeID(t.Context(), branch.ID)
	require.NoError(t, err)
	assert.Equal(t, branchInv.ID, instance.InventoryID)

	// Terminal: a second confirmation is rejected
	_, err = f.distribution.Confirm(t.Context(), branchAdmin.ID.String(), transactions[0].ID)
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestRejectRestoresSender(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	hqAdmin := f.createAdmin(t, "hq-admin", hq.ID)
	branchAdmin := f.createAdmin(t, "br-admin", branch.ID)
	item := f.createItem(t, "Projector")
	f.purchase(t, hqAdmin, item, 1)

	transactions, err := f.distribution.Distribute(t.Context(), hqAdmin.ID.String(), DistributeRequest{
		FromOfficeID: hq.ID.String(),
		ToOfficeID:   branch.ID.String(),
		ItemID:       item.ID.String(),
		Quantity:     1,
		Remarks:      "monthly allocation",
	})
	require.NoError(t, err)

	rejected, err := f.distribution.Reject(t.Context(), branchAdmin.ID.String(), transactions[0].ID, "damaged in transit")
	require.NoError(t, err)
	assert.Equal(t, model.TxRejected, rejected.Status)
	assert.True(t, strings.HasSuffix(rejected.Remarks, " | REJECTED: damaged in transit"), "remarks %q", rejected.Remarks)
	assert.True(t, strings.HasPrefix(rejected.Remarks, "monthly allocation"), "remarks %q", rejected.Remarks)

	// Custody never moved: back on the HQ shelf
	instance, err := f.instanceRepo.FindByBarcode(t.Context(), transactions[0].Barcode)
	require.NoError(t, err)
	assert.Equal(t, model.InstanceAvailable, instance.Status)
	assert.Equal(t, hq.ID, instance.OwnerOfficeID)

	_, err = f.distribution.Reject(t.Context(), branchAdmin.ID.String(), transactions[0].ID, "again")
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestConfirmRequiresReceivingAdmin(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	hqAdmin := f.createAdmin(t, "hq-admin", hq.ID)
	branchUser := f.createUser(t, "br-staff", model.RoleUser, branch.ID)
	item := f.createItem(t, "Tablet")
	f.purchase(t, hqAdmin, item, 1)

	transactions, err := f.distribution.Distribute(t.Context(), hqAdmin.ID.String(), DistributeRequest{
		FromOfficeID: hq.ID.String(),
		ToOfficeID:   branch.ID.String(),
		ItemID:       item.ID.String(),
		Quantity:     1,
	})
	require.NoError(t, err)

	_, err = f.distribution.Confirm(t.Context(), branchUser.ID.String(), transactions[0].ID)
	assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
}
