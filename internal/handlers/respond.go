package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"github.com/swiftserve/swiftserve-backend/internal/apperr"
	"github.com/swiftserve/swiftserve-backend/internal/auth"
	"github.com/swiftserve/swiftserve-backend/internal/middleware"
	"github.com/swiftserve/swiftserve-backend/pkg/utils"
)

func init() {
	// Report validation failures under the JSON field names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func respondError(c *gin.Context, err error) {
	status, body := apperr.ToResponse(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
	}
	c.JSON(status, body)
}

// bindJSON decodes the body into dst and runs its binding rules. Every
// failing field is reported at once. An empty body is validated as an
// empty object.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(dst)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fieldMessage(fe)
		}
		return apperr.Validation(fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Field(typeErr.Field, "Invalid value.")
	}
	return apperr.Field("non_field_errors", "Malformed JSON body.")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "oneof":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "gt", "gte":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	}
	return "Invalid value."
}

// parseID reads a numeric path parameter. Anything else is reported as a
// missing resource.
func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound("Not found.")
	}
	return uint(id), nil
}

// principal is the caller of a route behind RequireAuth.
func principal(c *gin.Context) (*auth.Principal, bool) {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		respondError(c, apperr.Unauthenticated("Authentication credentials were not provided."))
		return nil, false
	}
	return p, true
}

// warnMail logs a failed best-effort email. An unconfigured mailer is not
// worth a warning.
func warnMail(err error, kind string) {
	if err == nil {
		return
	}
	if errors.Is(err, utils.ErrEmailNotConfigured) {
		log.WithField("email", kind).Debug("email not sent, mailer not configured")
		return
	}
	log.WithError(err).WithField("email", kind).Warn("failed to send email")
}
