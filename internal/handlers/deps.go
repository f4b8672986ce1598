package handlers

import (
	"context"
	"mime/multipart"

	"github.com/swiftserve/swiftserve-backend/internal/models"
)

// Mailer sends the transactional emails. Failures never fail a request.
type Mailer interface {
	SendWelcomeOwner(email, name string) error
	SendRegistrationReceived(email, name, role string) error
	SendApprovalDecision(email, name, role string, approved bool) error
	SendInquiryReceived(email, contact, reference, serviceType string) error
	SendAdminAlert(adminEmail, subject string, lines ...string) error
}

// GarageCache holds the approved-garage list shown to drivers.
type GarageCache interface {
	ApprovedGarages(ctx context.Context) ([]models.Garage, bool)
	SetApprovedGarages(ctx context.Context, garages []models.Garage)
	InvalidateApprovedGarages(ctx context.Context)
}

type ImageStore interface {
	UploadImage(ctx context.Context, file *multipart.FileHeader, folder string) (string, error)
}
