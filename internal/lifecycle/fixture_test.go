package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"github.com/swiftserve/swiftserve-backend/internal/database/dbtest"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []StatusChange
}

func (r *recordingPublisher) PublishStatusChange(_ context.Context, change StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
	return nil
}

func (r *recordingPublisher) statuses() []models.ServiceStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.ServiceStatus, 0, len(r.changes))
	for _, c := range r.changes {
		out = append(out, c.To)
	}
	return out
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	engine *Engine
	events *recordingPublisher

	owner, otherOwner  *auth.Principal
	driverA, driverB   *auth.Principal
	pendingDriver      *auth.Principal
	garage, rival      *auth.Principal
	admin              *auth.Principal
	car, otherCar      models.Car
	unapprovedGarageID uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	events := &recordingPublisher{}
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		db:     db,
		engine: NewEngine(db, events),
		events: events,
	}

	f.owner = f.newOwner("owner@swiftserve.test", "REF00001")
	f.otherOwner = f.newOwner("other@swiftserve.test", "REF00002")
	f.driverA = f.newDriver("driver.a@swiftserve.test", models.ApprovalApproved)
	f.driverB = f.newDriver("driver.b@swiftserve.test", models.ApprovalApproved)
	f.pendingDriver = f.newDriver("driver.p@swiftserve.test", models.ApprovalPending)
	f.garage = f.newGarage("garage@swiftserve.test", "Eastside Motors", models.ApprovalApproved)
	f.rival = f.newGarage("rival@swiftserve.test", "Westside Autos", models.ApprovalApproved)
	f.unapprovedGarageID = f.newGarage("new@swiftserve.test", "Fresh Garage", models.ApprovalPending).GarageID

	admin := models.User{Email: "admin@swiftserve.test", PasswordHash: "x", UserType: models.UserTypeAdmin}
	require.NoError(t, db.Create(&admin).Error)
	f.admin = f.principal(admin.ID)

	f.car = f.newCar(f.owner, "KDA 001A")
	f.otherCar = f.newCar(f.otherOwner, "KDB 002B")
	return f
}

func (f *fixture) principal(userID uint) *auth.Principal {
	f.t.Helper()
	p, _, err := auth.LoadPrincipal(f.ctx, f.db, userID)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) newOwner(email, referral string) *auth.Principal {
	f.t.Helper()
	owner := models.CarOwner{
		User:         models.User{Email: email, PasswordHash: "x", FirstName: "Wanjiru", UserType: models.UserTypeCarOwner},
		PhoneNumber:  "0712345678",
		ReferralCode: referral,
	}
	require.NoError(f.t, f.db.Create(&owner).Error)
	return f.principal(owner.UserID)
}

func (f *fixture) newDriver(email string, status models.ApprovalStatus) *auth.Principal {
	f.t.Helper()
	driver := models.Driver{
		User:   models.User{Email: email, PasswordHash: "x", UserType: models.UserTypeMechanic},
		Status: status,
	}
	require.NoError(f.t, f.db.Create(&driver).Error)
	return f.principal(driver.UserID)
}

func (f *fixture) newGarage(email, name string, status models.ApprovalStatus) *auth.Principal {
	f.t.Helper()
	garage := models.Garage{
		User:   models.User{Email: email, PasswordHash: "x", UserType: models.UserTypeGarage},
		Name:   name,
		Status: status,
	}
	require.NoError(f.t, f.db.Create(&garage).Error)
	return f.principal(garage.UserID)
}

func (f *fixture) newCar(owner *auth.Principal, registration string) models.Car {
	f.t.Helper()
	car := models.Car{OwnerID: owner.OwnerID, Make: "Toyota", Model: "Axio", Year: 2016, RegistrationNumber: registration}
	require.NoError(f.t, f.db.Create(&car).Error)
	return car
}

func (f *fixture) create() *models.ServiceRequest {
	f.t.Helper()
	sr, err := f.engine.Create(f.ctx, f.owner, CreateInput{
		CarID:          f.car.ID,
		PickupLocation: "Kilimani, Nairobi",
		PreferredDate:  "2025-03-14",
		PreferredTime:  "09:30",
		ServiceType:    "oil_change",
	})
	require.NoError(f.t, err)
	return sr
}

// inService walks a new request to in_service at f.garage via driverA.
func (f *fixture) inService() *models.ServiceRequest {
	f.t.Helper()
	sr := f.create()
	_, err := f.engine.AcceptJob(f.ctx, f.driverA, sr.ID)
	require.NoError(f.t, err)
	_, err = f.engine.PickupCar(f.ctx, f.driverA, sr.ID)
	require.NoError(f.t, err)
	sr, err = f.engine.DeliverToGarage(f.ctx, f.driverA, sr.ID, f.garage.GarageID)
	require.NoError(f.t, err)
	return sr
}

func (f *fixture) addItem(id uint, description, cost string) *models.ServiceRequest {
	f.t.Helper()
	_, sr, err := f.engine.AddWorkItem(f.ctx, f.garage, id, WorkItemInput{Description: description, Cost: cost})
	require.NoError(f.t, err)
	return sr
}

func (f *fixture) notificationCount(where string, args ...any) int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(&models.Notification{}).Where(where, args...).Count(&n).Error)
	return n
}

func (f *fixture) status(id uint) models.ServiceStatus {
	f.t.Helper()
	var sr models.ServiceRequest
	require.NoError(f.t, f.db.First(&sr, id).Error)
	return sr.Status
}

func (f *fixture) manyDrivers(n int) []*auth.Principal {
	out := make([]*auth.Principal, n)
	for i := range out {
		out[i] = f.newDriver(fmt.Sprintf("racer%d@swiftserve.test", i), models.ApprovalApproved)
	}
	return out
}
