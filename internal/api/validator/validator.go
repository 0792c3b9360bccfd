package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// ValidationErrors wraps the validator's ValidationErrors
type ValidationErrors []playgroundvalidator.FieldError

// CustomValidator wraps go-playground/validator
type CustomValidator struct {
	validator *playgroundvalidator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() echo.Validator {
	v := playgroundvalidator.New()

	// Register custom validation tags
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Register custom validations
	err := v.RegisterValidation("user_role", validateUserRole)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("list_status", validateListStatus)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("access_type", validateAccessType)
	if err != nil {
		return nil
	}
	err = v.RegisterValidation("record_source", validateRecordSource)
	if err != nil {
		return nil
	}

	return &CustomValidator{validator: v}
}

// Custom validation functions
func validateUserRole(fl playgroundvalidator.FieldLevel) bool {
	role := fl.Field().String()
	return role == "admin" || role == "member"
}

func validateListStatus(fl playgroundvalidator.FieldLevel) bool {
	status := fl.Field().String()
	return status == "uploading" || status == "unverified" || status == "processing" || status == "verified"
}

func validateAccessType(fl playgroundvalidator.FieldLevel) bool {
	access := fl.Field().String()
	return access == "read" || access == "write"
}

func validateRecordSource(fl playgroundvalidator.FieldLevel) bool {
	source := fl.Field().String()
	validSources := map[string]bool{
		"single":          true,
		"bulk":            true,
		"credit_purchase": true,
	}
	return validSources[source]
}

// Validate implements echo.Validator interface
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		var validationErrors playgroundvalidator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return ValidationErrors(validationErrors)
		}
		return err
	}
	return nil
}

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	var fields []string
	for _, err := range ve {
		fields = append(fields, err.Field())
	}
	return fmt.Sprintf("validation failed on fields: %s", strings.Join(fields, ", "))
}

// RegisterRequest Request validation structs based on models
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Timezone  string `json:"timezone"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ShareRequest struct {
	MemberID     string   `json:"memberId" validate:"required,uuid"`
	EmailListIDs []string `json:"emailListIds" validate:"required,min=1,dive,uuid"`
	AccessType   string   `json:"accessType" validate:"omitempty"`
}

type RevokeRequest struct {
	MemberID string `json:"memberId" validate:"required,uuid"`
}

type ChangeAccessRequest struct {
	MemberID   string `json:"memberId" validate:"required,uuid"`
	AccessType string `json:"accessType" validate:"required,access_type"`
}

type SingleVerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type StartVerifyRequest struct {
	JobID  string `json:"jobId" validate:"omitempty"`
	ListID string `json:"listId" validate:"omitempty,uuid"`
}
