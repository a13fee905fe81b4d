package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"assetledger/internal/database"
	"assetledger/internal/model"
	"assetledger/internal/repository"
	"assetledger/pkg/barcode"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// fixture wires every service against an isolated in-memory database
type fixture struct {
	db *gorm.DB

	userRepo        repository.UserRepository
	officeRepo      repository.OfficeRepository
	catalogRepo     repository.CatalogRepository
	instanceRepo    repository.InstanceRepository
	purchaseRepo    repository.PurchaseRepository
	transactionRepo repository.TransactionRepository
	requestRepo     repository.RequestRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager

	identity     IdentityService
	offices      OfficeService
	catalog      CatalogService
	purchases    PurchaseService
	inventory    InventoryService
	distribution DistributionService
	requests     RequestService
	tracking     TrackingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedBaseData(db))

	f := &fixture{db: db}
	f.userRepo = repository.NewUserRepository(db)
	f.officeRepo = repository.NewOfficeRepository(db)
	f.catalogRepo = repository.NewCatalogRepository(db)
	f.instanceRepo = repository.NewInstanceRepository(db)
	f.purchaseRepo = repository.NewPurchaseRepository(db)
	f.transactionRepo = repository.NewTransactionRepository(db)
	f.requestRepo = repository.NewRequestRepository(db)
	f.auditRepo = repository.NewAuditRepository(db)

	txManager := repository.NewTransactionManager(db)
	f.txManager = txManager
	barcodes := barcode.NewGenerator()

	f.identity = NewIdentityService(f.userRepo)
	f.offices = NewOfficeService(f.identity, f.officeRepo, txManager)
	f.catalog = NewCatalogService(f.identity, f.catalogRepo)
	f.purchases = NewPurchaseService(f.identity, f.purchaseRepo, f.catalogRepo, f.officeRepo, f.instanceRepo, f.auditRepo, txManager, barcodes)
	f.inventory = NewInventoryService(f.identity, f.officeRepo, f.instanceRepo, f.transactionRepo, f.auditRepo, txManager)
	f.distribution = NewDistributionService(f.identity, f.officeRepo, f.instanceRepo, f.transactionRepo, f.auditRepo, txManager, nil)
	f.requests = NewRequestService(f.identity, f.requestRepo, f.officeRepo, f.catalogRepo, f.auditRepo, f.distribution, txManager)
	f.tracking = NewTrackingService(f.instanceRepo, f.transactionRepo, f.purchaseRepo)
	return f
}

func (f *fixture) createOffice(t *testing.T, name, code string, parentID *uuid.UUID) *model.Office {
	t.Helper()
	office := &model.Office{Name: name, Code: code, ParentID: parentID}
	require.NoError(t, f.db.Create(office).Error)
	require.NoError(t, f.db.Create(&model.Inventory{OfficeID: office.ID}).Error)
	return office
}

func (f *fixture) createUser(t *testing.T, username, roleName string, officeID uuid.UUID) *model.User {
	t.Helper()
	var role model.Role
	require.NoError(t, f.db.Where("name = ?", roleName).First(&role).Error)

	hashed, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &model.User{
		Username: username,
		Email:    username + "@example.com",
		FullName: username,
		Password: string(hashed),
		RoleID:   role.ID,
		OfficeID: officeID,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *fixture) createAdmin(t *testing.T, username string, officeID uuid.UUID) *model.User {
	t.Helper()
	return f.createUser(t, username, model.RoleAdmin, officeID)
}

func (f *fixture) createItem(t *testing.T, name string) *model.Item {
	t.Helper()
	category := &model.Category{Name: name + " category"}
	require.NoError(t, f.db.Create(category).Error)
	unit := &model.Unit{Name: name + " unit"}
	require.NoError(t, f.db.Create(unit).Error)

	item := &model.Item{Name: name, CategoryID: category.ID, UnitID: unit.ID}
	require.NoError(t, f.db.Create(item).Error)
	return item
}

// purchase shortcut: admin buys quantity units of item for their office
func (f *fixture) purchase(t *testing.T, admin *model.User, item *model.Item, quantity int) *PurchaseResponse {
	t.Helper()
	res, err := f.purchases.CreatePurchase(t.Context(), admin.ID.String(), CreatePurchaseRequest{
		Supplier: "ACME Supplies",
		Items: []PurchaseLineRequest{
			{ItemID: item.ID.String(), Quantity: quantity, UnitPrice: decimal.RequireFromString("19.99")},
		},
	})
	require.NoError(t, err)
	return res
}
