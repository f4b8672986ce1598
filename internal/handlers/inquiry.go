package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/models"
	"gorm.io/gorm"
)

var inquiryDisplayNames = map[models.InquiryType]string{
	models.InquiryFleetManagement: "Fleet Management",
	models.InquiryNTSAInspection:  "NTSA Inspection Compliance",
	models.InquiryDedicatedDriver: "Dedicated Driver Services",
}

// Contact fields and the spellings the different inquiry forms use.
var inquiryContactKeys = map[string][]string{
	"company_name":   {"company_name", "companyName", "institutionName"},
	"contact_person": {"contact_person", "contactPerson"},
	"email":          {"email"},
	"phone":          {"phone"},
}

// SubmitServiceInquiry stores a B2B lead. Fields beyond the contact
// details are kept as submitted.
func SubmitServiceInquiry(db *gorm.DB, mailer Mailer, adminEmail string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := map[string]any{}
		if err := c.ShouldBindJSON(&data); err != nil && c.Request.ContentLength != 0 {
			respondError(c, apperr.Field("non_field_errors", "Malformed JSON body."))
			return
		}

		serviceType := models.InquiryType(stringValue(data["service_type"]))
		delete(data, "service_type")
		contact := map[string]string{}
		for field, keys := range inquiryContactKeys {
			for _, k := range keys {
				if contact[field] == "" {
					contact[field] = strings.TrimSpace(stringValue(data[k]))
				}
				delete(data, k)
			}
		}

		missing := map[string]string{}
		if serviceType == "" {
			missing["service_type"] = "This field is required."
		}
		for field, v := range contact {
			if v == "" {
				missing[field] = "This field is required."
			}
		}
		if len(missing) > 0 {
			respondError(c, &apperr.Error{
				Kind:    apperr.KindValidation,
				Message: "Missing required fields: service_type, company name, contact person, email, and phone are required",
				Fields:  missing,
			})
			return
		}
		if !serviceType.Valid() {
			respondError(c, apperr.Invalid("service_type",
				"Invalid service type. Must be one of: fleet_management, ntsa_inspection, dedicated_drivers"))
			return
		}

		inquiry := models.ServiceInquiry{
			ServiceType:   serviceType,
			CompanyName:   contact["company_name"],
			ContactPerson: contact["contact_person"],
			Email:         contact["email"],
			Phone:         contact["phone"],
			Details:       data,
			Status:        "new",
		}
		if err := db.WithContext(c.Request.Context()).Create(&inquiry).Error; err != nil {
			respondError(c, err)
			return
		}

		reference := inquiry.Reference()
		display := inquiryDisplayNames[serviceType]
		log.WithFields(log.Fields{"reference": reference, "service_type": serviceType}).Info("service inquiry received")

		lines := []string{
			"Service Type: " + display,
			"Company/Institution: " + inquiry.CompanyName,
			"Contact Person: " + inquiry.ContactPerson,
			"Email: " + inquiry.Email,
			"Phone: " + inquiry.Phone,
		}
		lines = append(lines, detailLines(data)...)
		lines = append(lines, "Reference: "+reference)
		warnMail(mailer.SendAdminAlert(adminEmail, fmt.Sprintf("New %s Inquiry - %s", display, inquiry.CompanyName), lines...),
			"inquiry admin alert")
		warnMail(mailer.SendInquiryReceived(inquiry.Email, inquiry.ContactPerson, reference, display), "inquiry confirmation")

		c.JSON(http.StatusCreated, gin.H{
			"message":   "Inquiry submitted successfully",
			"reference": reference,
		})
	}
}

// detailLines renders the extra form fields, skipping empty ones.
func detailLines(data map[string]any) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		if v := stringValue(data[k]); v != "" {
			out = append(out, k+": "+v)
		}
	}
	return out
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
