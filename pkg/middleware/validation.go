package middleware

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/wms-platform/outbound-service/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// InitValidator initializes the validator with custom validators
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		// Register custom validators
		_ = validate.RegisterValidation("order_id", validateOrderID)
		_ = validate.RegisterValidation("sku", validateSKU)
		_ = validate.RegisterValidation("dock_id", validateDockID)
		_ = validate.RegisterValidation("location_id", validateLocationID)
		_ = validate.RegisterValidation("carrier_code", validateCarrierCode)
		_ = validate.RegisterValidation("tracking_number", validateTrackingNumber)
		_ = validate.RegisterValidation("priority", validatePriority)
		_ = validate.RegisterValidation("safe_string", validateSafeString)

		// Use JSON tag names for error messages
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			return name
		})

		// Set as Gin's default validator
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("order_id", validateOrderID)
			_ = v.RegisterValidation("sku", validateSKU)
			_ = v.RegisterValidation("dock_id", validateDockID)
			_ = v.RegisterValidation("location_id", validateLocationID)
			_ = v.RegisterValidation("carrier_code", validateCarrierCode)
			_ = v.RegisterValidation("tracking_number", validateTrackingNumber)
			_ = v.RegisterValidation("priority", validatePriority)
			_ = v.RegisterValidation("safe_string", validateSafeString)

			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return fld.Name
				}
				return name
			})
		}
	})

	return validate
}


// Custom validators

var (
	orderIDRegex   = regexp.MustCompile(`^ORD-[a-zA-Z0-9]{8,}$`)
	skuRegex       = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{2,49}$`)
	dockIDRegex    = regexp.MustCompile(`^DOCK-[a-zA-Z0-9]{2,}$`)
	locationRegex  = regexp.MustCompile(`^[A-Z]{1,2}-\d{2}-\d{2}-[A-Z0-9]+$`)
	carrierRegex   = regexp.MustCompile(`^(UPS|FEDEX|USPS|DHL|ONTRAC)$`)
	safeStringRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.,!?@#$%&*()+=:;'"<>\/\[\]{}|\\~\x60]+$`)
)

func validateOrderID(fl validator.FieldLevel) bool {
	return orderIDRegex.MatchString(fl.Field().String())
}

func validateSKU(fl validator.FieldLevel) bool {
	return skuRegex.MatchString(fl.Field().String())
}

func validateDockID(fl validator.FieldLevel) bool {
	return dockIDRegex.MatchString(fl.Field().String())
}

func validateLocationID(fl validator.FieldLevel) bool {
	return locationRegex.MatchString(fl.Field().String())
}

func validateCarrierCode(fl validator.FieldLevel) bool {
	return carrierRegex.MatchString(fl.Field().String())
}

func validateTrackingNumber(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	// Basic validation: 8-30 alphanumeric characters
	return len(value) >= 8 && len(value) <= 30
}

func validatePriority(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	validPriorities := map[string]bool{
		"same_day": true,
		"next_day": true,
		"standard": true,
		"economy":  true,
	}
	return validPriorities[value]
}

func validateSafeString(fl validator.FieldLevel) bool {
	return safeStringRegex.MatchString(fl.Field().String())
}

// SanitizeString removes potentially dangerous characters from a string
func SanitizeString(s string) string {
	// Remove null bytes
	s = strings.ReplaceAll(s, "\x00", "")

	// Trim whitespace
	s = strings.TrimSpace(s)

	return s
}

// InputSanitizer middleware sanitizes string inputs
func InputSanitizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Sanitize query parameters
		query := c.Request.URL.Query()
		for key, values := range query {
			for i, v := range values {
				values[i] = SanitizeString(v)
			}
			query[key] = values
		}
		c.Request.URL.RawQuery = query.Encode()

		c.Next()
	}
}

// ContentType middleware ensures proper content type for POST/PUT/PATCH
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "POST" || c.Request.Method == "PUT" || c.Request.Method == "PATCH" {
			contentType := c.GetHeader("Content-Type")
			if contentType == "" || !strings.HasPrefix(contentType, "application/json") {
				// Allow empty body for some endpoints
				if c.Request.ContentLength > 0 {
					AbortWithAppError(c, &errors.AppError{
						Code:       "INVALID_CONTENT_TYPE",
						Message:    "Content-Type must be application/json",
						HTTPStatus: 415,
					})
					return
				}
			}
		}
		c.Next()
	}
}
