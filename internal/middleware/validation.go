package middleware

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	playgroundValidator "github.com/go-playground/validator/v10"

	"github.com/Majo7-613/Wheels-Unisabana-2/internal/schemas"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/utils"
	"github.com/Majo7-613/Wheels-Unisabana-2/internal/validators"
)

// ValidateAndSanitizeStruct binds the JSON body into a fresh instance of the
// given prototype, sanitizes its string fields and validates it. The
// sanitized payload is stored in the context for the handler.
func ValidateAndSanitizeStruct(prototype interface{}) gin.HandlerFunc {
	prototypeType := reflect.TypeOf(prototype).Elem()

	return func(c *gin.Context) {
		obj := reflect.New(prototypeType).Interface()

		if err := c.ShouldBindJSON(obj); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: schemas.BadRequest.Code})
			return
		}

		validator := validators.GetValidator()
		if err := validator.SanitizeData(obj); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: schemas.BadRequest.Code})
			return
		}

		if err := validator.Validate.Struct(obj); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: mapValidationError(err).Code})
			return
		}

		c.Set(utils.SanitizedPayloadKey.String(), obj)
		c.Next()
	}
}

// mapValidationError picks the taxonomy code for the first failed field so
// the register flow can distinguish weak passwords and non-institutional
// emails from generic shape errors.
func mapValidationError(err error) *schemas.CustomError {
	var validationErrors playgroundValidator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return schemas.BadRequest
	}

	first := validationErrors[0]
	switch {
	case first.Tag() == "institutional_email":
		return schemas.InvalidEmailDomain
	case first.Tag() == "min" && (first.Field() == "Password" || first.Field() == "NewPassword"):
		return schemas.WeakPassword
	default:
		return schemas.BadRequest
	}
}
