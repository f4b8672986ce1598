package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swiftserve/swiftserve-backend/internal/api"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"github.com/swiftserve/swiftserve-backend/internal/config"
	"github.com/swiftserve/swiftserve-backend/internal/database"
	"github.com/swiftserve/swiftserve-backend/internal/database/dbtest"
	"github.com/swiftserve/swiftserve-backend/internal/lifecycle"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"github.com/swiftserve/swiftserve-backend/internal/services"
	"github.com/swiftserve/swiftserve-backend/pkg/client"
)

const (
	adminEmail    = "admin@swiftserve.test"
	adminPassword = "admin-pass"
	password      = "s3cret-pass"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	db := dbtest.New(t)
	_, err := database.EnsureAdmin(db, adminEmail, adminPassword)
	require.NoError(t, err)

	sessions, err := auth.NewService("client-test-secret", time.Hour)
	require.NoError(t, err)
	storage, err := services.NewStorage(config.StorageConfig{UploadDir: t.TempDir(), BaseURL: "http://files.test"})
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(api.Deps{
		DB:           db,
		Sessions:     sessions,
		Engine:       lifecycle.NewEngine(db, nil),
		Images:       storage,
		LoginLimiter: services.NewMemoryRateLimiter(100, time.Minute),
		AllowOrigins: []string{"http://localhost:3000"},
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *client.Client {
	t.Helper()
	c, err := client.New(srv.URL)
	require.NoError(t, err)
	return c
}

func signIn(t *testing.T, srv *httptest.Server, email, pw string) (*client.Client, *client.Session) {
	t.Helper()
	c := newClient(t, srv)
	session, err := c.Login(context.Background(), email, pw)
	require.NoError(t, err)
	return c, session
}

func registerDriver(t *testing.T, srv *httptest.Server, email string) {
	t.Helper()
	_, err := newClient(t, srv).RegisterMechanic(context.Background(), client.MechanicRegistration{
		Email:       email,
		Password:    password,
		FirstName:   "Driver",
		LastName:    email[:1],
		PhoneNumber: "0722000000",
		Address:     "Ngong Road",
		IDNumber:    "12345678",
	})
	require.NoError(t, err)
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)

	_, err := newClient(t, srv).RegisterCarOwner(ctx, client.OwnerRegistration{
		Email:           "owner@swiftserve.test",
		Password:        password,
		FirstName:       "Achieng",
		LastName:        "Odhiambo",
		PhoneNumber:     "0711111111",
		Address:         "Lavington",
		CarMake:         "Subaru",
		CarModel:        "Forester",
		CarYear:         2018,
		CarRegistration: "KDB 456C",
	})
	require.NoError(t, err)
	registerDriver(t, srv, "a@swiftserve.test")
	registerDriver(t, srv, "b@swiftserve.test")
	_, err = newClient(t, srv).RegisterGarage(ctx, client.GarageRegistration{
		Email:      "garage@swiftserve.test",
		Password:   password,
		Name:       "Industrial Area Motors",
		OwnerName:  "Peter Kamau",
		OwnerPhone: "0733000000",
		Address:    "Enterprise Road",
		Location:   "Industrial Area",
	})
	require.NoError(t, err)

	admin, _ := signIn(t, srv, adminEmail, adminPassword)
	drivers, err := admin.PendingMechanics(ctx)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	for _, d := range drivers {
		_, err := admin.ApproveMechanic(ctx, d.ID, models.ApprovalApproved)
		require.NoError(t, err)
	}
	garages, err := admin.PendingGarages(ctx)
	require.NoError(t, err)
	require.Len(t, garages, 1)
	approved, err := admin.ApproveGarage(ctx, garages[0].ID, models.ApprovalApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, approved.Status)

	owner, _ := signIn(t, srv, "owner@swiftserve.test", password)
	driverA, _ := signIn(t, srv, "a@swiftserve.test", password)
	driverB, _ := signIn(t, srv, "b@swiftserve.test", password)
	garage, garageSession := signIn(t, srv, "garage@swiftserve.test", password)

	cars, err := owner.ListCars(ctx)
	require.NoError(t, err)
	require.Len(t, cars, 1)

	sr, err := owner.CreateServiceRequest(ctx, client.ServiceRequestInput{
		Car:            cars[0].ID,
		PickupLocation: "Lavington Mall",
		PreferredDate:  "2026-11-02",
		PreferredTime:  "10:30",
		ServiceType:    "full_service",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, sr.Status)
	assert.True(t, sr.TotalCost.Equal(decimal.NewFromInt(700)))

	// Both drivers race for the job.
	var (
		wg      sync.WaitGroup
		results = make([]error, 2)
	)
	for i, d := range []*client.Client{driverA, driverB} {
		wg.Add(1)
		go func(i int, d *client.Client) {
			defer wg.Done()
			_, results[i] = d.AcceptJob(ctx, sr.ID)
		}(i, d)
	}
	wg.Wait()

	var winner, loser *client.Client
	switch {
	case results[0] == nil && results[1] != nil:
		winner, loser = driverA, driverB
	case results[1] == nil && results[0] != nil:
		winner, loser = driverB, driverA
	default:
		t.Fatalf("exactly one accept must win, got %v and %v", results[0], results[1])
	}
	var lost *client.APIError
	loserErr := results[0]
	if loser == driverB {
		loserErr = results[1]
	}
	require.True(t, errors.As(loserErr, &lost))
	assert.Equal(t, http.StatusConflict, lost.Status)
	assert.Equal(t, "This request has already been taken", lost.Message)

	_, err = loser.PickupCar(ctx, sr.ID)
	assert.True(t, client.IsStatus(err, http.StatusForbidden), "only the assigned driver may pick up")

	sr, err = winner.PickupCar(ctx, sr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPickedUp, sr.Status)

	sr, err = winner.DeliverToGarage(ctx, sr.ID, garageSession.User.GarageID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInService, sr.Status)

	_, err = garage.AddWorkItem(ctx, sr.ID, "Brake pads", decimal.NewFromInt(5000))
	require.NoError(t, err)
	result, err := garage.AddWorkItem(ctx, sr.ID, "Oil and filter", decimal.NewFromInt(3000))
	require.NoError(t, err)
	assert.True(t, result.GarageCost.Equal(decimal.NewFromInt(8000)))
	assert.True(t, result.TotalCost.Equal(decimal.NewFromInt(9100)))

	earnings, err := garage.Earnings(ctx, sr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), earnings.Garage.CommissionPercent)
	assert.True(t, earnings.Garage.GarageEarnings.Equal(decimal.NewFromInt(7200)))
	assert.True(t, earnings.Owner.ServiceFee.Equal(decimal.NewFromInt(400)))
	assert.True(t, earnings.Owner.TotalCost.Equal(decimal.NewFromInt(9100)))

	sr, err = garage.CompleteService(ctx, sr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, sr.Status)

	sr, err = winner.ReturnToOwner(ctx, sr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, sr.Status)

	for name, step := range map[string]func() error{
		"return again": func() error { _, err := winner.ReturnToOwner(ctx, sr.ID); return err },
		"accept":       func() error { _, err := loser.AcceptJob(ctx, sr.ID); return err },
		"complete":     func() error { _, err := garage.CompleteService(ctx, sr.ID); return err },
		"add work":     func() error { _, err := garage.AddWorkItem(ctx, sr.ID, "Wipers", decimal.NewFromInt(500)); return err },
	} {
		assert.True(t, client.IsStatus(step(), http.StatusConflict), name)
	}

	final, err := owner.ServiceRequest(ctx, sr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, final.Status)
	assert.True(t, final.TotalCost.Equal(decimal.NewFromInt(9100)))
	assert.Len(t, final.WorkItems, 2)

	notes, err := owner.Notifications(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, notes)
	require.NoError(t, owner.MarkNotificationRead(ctx, notes[0].ID))
}

func TestAuthErrors(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	anon := newClient(t, srv)

	_, err := anon.ServiceRequests(ctx)
	assert.True(t, client.IsAuthError(err))

	_, err = anon.Login(ctx, adminEmail, "wrong")
	assert.True(t, client.IsAuthError(err))

	admin, session := signIn(t, srv, adminEmail, adminPassword)
	assert.Equal(t, "admin", session.UserType)
	me, err := admin.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, adminEmail, me.User.Email)

	require.NoError(t, admin.Logout(ctx))
	_, err = admin.CurrentUser(ctx)
	assert.True(t, client.IsAuthError(err))
}

func TestValidationErrorFields(t *testing.T) {
	srv := newServer(t)
	_, err := newClient(t, srv).RegisterGarage(context.Background(), client.GarageRegistration{Email: "bad"})

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "validation_failed", apiErr.Code)
	assert.Contains(t, apiErr.Fields, "email")
	assert.Contains(t, apiErr.Fields, "name")
	assert.False(t, client.IsAuthError(err))
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("server rejection is returned", func(t *testing.T) {
		srv := newServer(t)
		_, err := newClient(t, srv).RegisterCarOwner(ctx, client.OwnerRegistration{
			Email: "shop@swiftserve.test", Password: password, FirstName: "S", LastName: "Hopper",
			PhoneNumber: "0700000001", Address: "CBD",
		})
		require.NoError(t, err)
		owner, _ := signIn(t, srv, "shop@swiftserve.test", password)

		order, err := owner.PlaceOrder(ctx, client.OrderInput{Items: []client.OrderItem{{ProductID: 42, Quantity: 1}}})
		assert.Nil(t, order)
		assert.True(t, client.IsStatus(err, http.StatusBadRequest))
		assert.False(t, errors.Is(err, client.ErrTransport))
	})

	t.Run("transport failure is provisional", func(t *testing.T) {
		srv := newServer(t)
		owner := newClient(t, srv)
		_, err := owner.CSRF(ctx)
		require.NoError(t, err)
		srv.Close()

		order, err := owner.PlaceOrder(ctx, client.OrderInput{
			Items:           []client.OrderItem{{ProductID: 7, Quantity: 2}},
			ShippingAddress: "Kileleshwa",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, client.ErrTransport))
		require.NotNil(t, order)
		assert.True(t, order.Provisional)
		assert.Regexp(t, `^ORD-[0-9A-F]{8}$`, order.OrderNumber)
		assert.Equal(t, models.OrderPending, order.Status)
		require.Len(t, order.Items, 1)
		assert.Equal(t, 2, order.Items[0].Quantity)
		assert.ErrorIs(t, order.Err, client.ErrTransport)
	})
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := client.New("/api")
	assert.Error(t, err)
}
