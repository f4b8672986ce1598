package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/swiftserve/swiftserve-backend/internal/models"
)

// User is the signed-in account with the ID of its role profile. Status is
// the onboarding state for drivers and garages.
type User struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	CarOwnerID uint   `json:"car_owner_id,omitempty"`
	MechanicID uint   `json:"mechanic_id,omitempty"`
	GarageID   uint   `json:"garage_id,omitempty"`
	Status     string `json:"status,omitempty"`
}

type Session struct {
	UserType string `json:"user_type"`
	User     User   `json:"user"`
}

type OwnerRegistration struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	PhoneNumber      string `json:"phone_number"`
	Address          string `json:"address"`
	ReferralCodeUsed string `json:"referral_code_used,omitempty"`

	CarMake         string `json:"car_make,omitempty"`
	CarModel        string `json:"car_model,omitempty"`
	CarYear         int    `json:"car_year,omitempty"`
	CarRegistration string `json:"car_registration,omitempty"`
	CarColor        string `json:"car_color,omitempty"`
}

type MechanicRegistration struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	PhoneNumber   string `json:"phone_number"`
	Address       string `json:"address"`
	IDNumber      string `json:"id_number"`
	LicenseNumber string `json:"license_number,omitempty"`
}

type GarageRegistration struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	OwnerName  string `json:"owner_name"`
	OwnerPhone string `json:"owner_phone"`
	OwnerEmail string `json:"owner_email,omitempty"`
	Address    string `json:"address"`
	Location   string `json:"location"`
}

type Car struct {
	Make               string `json:"make"`
	Model              string `json:"model"`
	Year               int    `json:"year"`
	RegistrationNumber string `json:"registration_number"`
	Color              string `json:"color,omitempty"`
	Mileage            int    `json:"mileage,omitempty"`
	FuelType           string `json:"fuel_type,omitempty"`
	Transmission       string `json:"transmission,omitempty"`
}

// Image is one file for UploadGarageImages.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	err := c.post(ctx, "/api/auth/login/", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "/api/auth/logout/", nil, nil)
}

func (c *Client) CurrentUser(ctx context.Context) (*Session, error) {
	var out Session
	if err := c.get(ctx, "/api/auth/user/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RegisterCarOwner(ctx context.Context, in OwnerRegistration) (*models.CarOwner, error) {
	var out struct {
		CarOwner models.CarOwner `json:"car_owner"`
	}
	if err := c.post(ctx, "/api/car-owners/register/", in, &out); err != nil {
		return nil, err
	}
	return &out.CarOwner, nil
}

func (c *Client) RegisterMechanic(ctx context.Context, in MechanicRegistration) (*models.Driver, error) {
	var out struct {
		Mechanic models.Driver `json:"mechanic"`
	}
	if err := c.post(ctx, "/api/mechanics/register/", in, &out); err != nil {
		return nil, err
	}
	return &out.Mechanic, nil
}

func (c *Client) RegisterGarage(ctx context.Context, in GarageRegistration) (*models.Garage, error) {
	var out struct {
		Garage models.Garage `json:"garage"`
	}
	if err := c.post(ctx, "/api/garages/register/", in, &out); err != nil {
		return nil, err
	}
	return &out.Garage, nil
}

func (c *Client) CarOwnerProfile(ctx context.Context) (*models.CarOwner, error) {
	var out models.CarOwner
	if err := c.get(ctx, "/api/car-owners/me/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MechanicProfile(ctx context.Context) (*models.Driver, error) {
	var out models.Driver
	if err := c.get(ctx, "/api/mechanics/me/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GarageProfile(ctx context.Context) (*models.Garage, error) {
	var out models.Garage
	if err := c.get(ctx, "/api/garages/me/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PendingMechanics(ctx context.Context) ([]models.Driver, error) {
	var out []models.Driver
	err := c.get(ctx, "/api/mechanics/pending/", &out)
	return out, err
}

func (c *Client) PendingGarages(ctx context.Context) ([]models.Garage, error) {
	var out []models.Garage
	err := c.get(ctx, "/api/garages/pending/", &out)
	return out, err
}

// ApproveMechanic records an admin decision. status is "approved" or
// "rejected".
func (c *Client) ApproveMechanic(ctx context.Context, id uint, status models.ApprovalStatus) (*models.Driver, error) {
	var out struct {
		Mechanic models.Driver `json:"mechanic"`
	}
	path := fmt.Sprintf("/api/mechanics/%d/approve/", id)
	if err := c.post(ctx, path, map[string]models.ApprovalStatus{"status": status}, &out); err != nil {
		return nil, err
	}
	return &out.Mechanic, nil
}

func (c *Client) ApproveGarage(ctx context.Context, id uint, status models.ApprovalStatus) (*models.Garage, error) {
	var out struct {
		Garage models.Garage `json:"garage"`
	}
	path := fmt.Sprintf("/api/garages/%d/approve/", id)
	if err := c.post(ctx, path, map[string]models.ApprovalStatus{"status": status}, &out); err != nil {
		return nil, err
	}
	return &out.Garage, nil
}

func (c *Client) ListGarages(ctx context.Context) ([]models.Garage, error) {
	var out []models.Garage
	err := c.get(ctx, "/api/garages/", &out)
	return out, err
}

func (c *Client) UploadGarageImages(ctx context.Context, garageID uint, images []Image) ([]models.GarageImage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, img := range images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename=%q`, img.Filename))
		h.Set("Content-Type", img.ContentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out struct {
		Images []models.GarageImage `json:"images"`
	}
	path := fmt.Sprintf("/api/garages/%d/upload_images/", garageID)
	if err := c.mutateRaw(ctx, http.MethodPost, path, buf.Bytes(), mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return out.Images, nil
}

func (c *Client) ListCars(ctx context.Context) ([]models.Car, error) {
	var out []models.Car
	err := c.get(ctx, "/api/cars/", &out)
	return out, err
}

func (c *Client) CreateCar(ctx context.Context, in Car) (*models.Car, error) {
	var out models.Car
	if err := c.post(ctx, "/api/cars/", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	err := c.get(ctx, "/api/notifications/", &out)
	return out, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id uint) error {
	return c.post(ctx, fmt.Sprintf("/api/notifications/%d/mark_read/", id), nil, nil)
}

// Broadcast sends a notification to every approved driver, or to every
// approved garage when toGarages is set. It returns the recipient count.
func (c *Client) Broadcast(ctx context.Context, toGarages bool, title, message string) (int, error) {
	path := "/api/notifications/send_to_mechanics/"
	if toGarages {
		path = "/api/notifications/send_to_garages/"
	}
	var out struct {
		Count int `json:"count"`
	}
	err := c.post(ctx, path, map[string]string{"title": title, "message": message}, &out)
	return out.Count, err
}

// SubmitInquiry posts a B2B service inquiry and returns its reference.
func (c *Client) SubmitInquiry(ctx context.Context, inquiry map[string]any) (string, error) {
	var out struct {
		Reference string `json:"reference"`
	}
	if err := c.post(ctx, "/api/service-inquiry/", inquiry, &out); err != nil {
		return "", err
	}
	return out.Reference, nil
}
