package service

import (
	"fmt"
	"testing"

	"assetledger/internal/apperror"
	"assetledger/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLifecycle(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	hqAdmin := f.createAdmin(t, "hq-admin", hq.ID)
	branchAdmin := f.createAdmin(t, "br-admin", branch.ID)
	item := f.createItem(t, "Keyboard")
	f.purchase(t, hqAdmin, item, 10)

	// Branch files a request for 6 units
	req, err := f.requests.Create(t.Context(), branchAdmin.ID.String(), CreateItemRequest{
		ItemID:   item.ID.String(),
		Quantity: 6,
		Reason:   "new hires",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, hq.ID.String(), req.ParentOfficeID)

	// HQ approves 4 of 6
	req, err = f.requests.Approve(t.Context(), hqAdmin.ID.String(), req.ID, ApproveItemRequest{ApprovedQuantity: 4})
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, req.Status)
	require.NotNil(t, req.ApprovedQuantity)
	assert.Equal(t, 4, *req.ApprovedQuantity)

	// First shipment of 3 leaves the request partially fulfilled
	req, err = f.requests.Fulfill(t.Context(), hqAdmin.ID.String(), req.ID, FulfillItemRequest{Quantity: 3, Remarks: "first batch"})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPartiallyFulfilled, req.Status)
	assert.Equal(t, 3, req.FulfilledQuantity)
	assert.Equal(t, 1, req.RemainingQuantity)

	// The shipment went through the transfer engine as pending transactions
	pending, err := f.distribution.PendingForOffice(t.Context(), branchAdmin.ID.String(), "")
	require.NoError(t, err)
	require.Len(t, pending, 3)
	expectedRemarks := fmt.Sprintf("Fulfilling request #%s (3 of 4): first batch", req.ID)
	assert.Equal(t, expectedRemarks, pending[0].Remarks)

	// Shipping the remainder completes the request
	req, err = f.requests.Fulfill(t.Context(), hqAdmin.ID.String(), req.ID, FulfillItemRequest{Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, model.RequestFulfilled, req.Status)
	assert.Equal(t, 4, req.FulfilledQuantity)
	require.NotNil(t, req.FulfilledDate)

	// A fulfilled request cannot ship more
	_, err = f.requests.Fulfill(t.Context(), hqAdmin.ID.String(), req.ID, FulfillItemRequest{Quantity: 1})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestRequestApprovalRules(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	hqAdmin := f.createAdmin(t, "hq-admin", hq.ID)
	branchAdmin := f.createAdmin(t, "br-admin", branch.ID)
	item := f.createItem(t, "Mouse")

	req, err := f.requests.Create(t.Context(), branchAdmin.ID.String(), CreateItemRequest{
		ItemID:   item.ID.String(),
		Quantity: 5,
	})
	require.NoError(t, err)

	t.Run("requesting office cannot approve its own request", func(t *testing.T) {
		_, err := f.requests.Approve(t.Context(), branchAdmin.ID.String(), req.ID, ApproveItemRequest{ApprovedQuantity: 5})
		assert.True(t, apperror.IsKind(err, apperror.KindForbidden))
	})

	t.Run("approved quantity bounded by requested", func(t *testing.T) {
		_, err := f.requests.Approve(t.Context(), hqAdmin.ID.String(), req.ID, ApproveItemRequest{ApprovedQuantity: 6})
		assert.True(t, apperror.IsKind(err, apperror.KindInvalid))
	})

	t.Run("fulfill before approval fails", func(t *testing.T) {
		_, err := f.requests.Fulfill(t.Context(), hqAdmin.ID.String(), req.ID, FulfillItemRequest{Quantity: 1})
		assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
	})
}

func TestRequestReject(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	hqAdmin := f.createAdmin(t, "hq-admin", hq.ID)
	branchAdmin := f.createAdmin(t, "br-admin", branch.ID)
	item := f.createItem(t, "Webcam")

	req, err := f.requests.Create(t.Context(), branchAdmin.ID.String(), CreateItemRequest{
		ItemID:   item.ID.String(),
		Quantity: 2,
	})
	require.NoError(t, err)

	req, err = f.requests.Reject(t.Context(), hqAdmin.ID.String(), req.ID, "budget freeze")
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, req.Status)
	assert.Equal(t, "budget freeze", req.Remarks)
	require.NotNil(t, req.RejectedDate)

	// Decisions are terminal
	_, err = f.requests.Approve(t.Context(), hqAdmin.ID.String(), req.ID, ApproveItemRequest{ApprovedQuantity: 1})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalidState))
}

func TestRequestFromTopLevelOfficeFails(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	hqAdmin := f.createAdmin(t, "hq-admin", hq.ID)
	item := f.createItem(t, "Cable")

	_, err := f.requests.Create(t.Context(), hqAdmin.ID.String(), CreateItemRequest{
		ItemID:   item.ID.String(),
		Quantity: 1,
	})
	assert.True(t, apperror.IsKind(err, apperror.KindInvalid))
}

func TestIncomingPendingListsChildRequests(t *testing.T) {
	f := newFixture(t)
	hq := f.createOffice(t, "Headquarters", "HQ", nil)
	branch := f.createOffice(t, "Branch", "BR", &hq.ID)
	hqAdmin := f.createAdmin(t, "hq-admin", hq.ID)
	branchAdmin := f.createAdmin(t, "br-admin", branch.ID)
	item := f.createItem(t, "Headset")

	for i := 0; i < 2; i++ {
		_, err := f.requests.Create(t.Context(), branchAdmin.ID.String(), CreateItemRequest{
			ItemID:   item.ID.String(),
			Quantity: i + 1,
		})
		require.NoError(t, err)
	}

	incoming, err := f.requests.IncomingPending(t.Context(), hqAdmin.ID.String(), "")
	require.NoError(t, err)
	assert.Len(t, incoming, 2)

	mine, err := f.requests.ForRequestingOffice(t.Context(), branchAdmin.ID.String(), "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
