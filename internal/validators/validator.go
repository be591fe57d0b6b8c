package validators

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/truemail-rb/truemail-go"
)

// InstitutionalDomain is the sole accepted identity domain for registration.
const InstitutionalDomain = "unisabana.edu.co"

var (
	plateLettersDigits = regexp.MustCompile(`^[A-Z]{3}[0-9]{3}$`)
	plateMotorcycle    = regexp.MustCompile(`^[A-Z]{3}[0-9]{2}[A-Z]$`)
)

type Validator struct {
	Validate    *validator.Validate
	VerifyEmail func(email string) bool

	policy *bluemonday.Policy
}

var (
	instance      *Validator
	once          sync.Once
	configuration *truemail.Configuration
)

func GetValidator() *Validator {
	once.Do(func() {
		configuration, _ = truemail.NewConfiguration(truemail.ConfigurationAttr{
			VerifierEmail:         "wheels@unisabana.edu.co",
			ValidationTypeDefault: "mx",
			SmtpFailFast:          true,
		})

		instance = &Validator{
			Validate:    validator.New(validator.WithRequiredStructEnabled()),
			VerifyEmail: verifyEmail,
			policy:      bluemonday.StrictPolicy(),
		}

		registerCustomValidators(instance.Validate)
	})

	return instance
}

func verifyEmail(email string) bool {
	return truemail.IsValid(email, configuration)
}

func registerCustomValidators(v *validator.Validate) {
	err := v.RegisterValidation("plate_validation", plateValidation)
	if err != nil {
		return
	}

	err = v.RegisterValidation("institutional_email", institutionalEmailValidation)
	if err != nil {
		return
	}
}

// NormalizePlate removes all whitespace and uppercases the plate before matching.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

// PlateValid reports whether the normalized plate matches one of the two
// accepted Colombian formats (ABC123 or ABC12D).
func PlateValid(plate string) bool {
	normalized := NormalizePlate(plate)
	return plateLettersDigits.MatchString(normalized) || plateMotorcycle.MatchString(normalized)
}

func plateValidation(fl validator.FieldLevel) bool {
	return PlateValid(fl.Field().String())
}

// InstitutionalEmail reports whether the lowercased address belongs to the
// institutional domain or one of its subdomains.
func InstitutionalEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}

	domain := strings.ToLower(email[at+1:])
	return domain == InstitutionalDomain || strings.HasSuffix(domain, "."+InstitutionalDomain)
}

func institutionalEmailValidation(fl validator.FieldLevel) bool {
	return InstitutionalEmail(fl.Field().String())
}

// SanitizeData strips markup from every string field of the given struct
// pointer, recursing into nested structs, slices and maps.
func (v *Validator) SanitizeData(obj interface{}) error {
	value := reflect.ValueOf(obj)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}

	v.sanitizeValue(value)
	return nil
}

func (v *Validator) sanitizeValue(value reflect.Value) {
	switch value.Kind() {
	case reflect.String:
		if value.CanSet() {
			value.SetString(v.policy.Sanitize(value.String()))
		}
	case reflect.Ptr:
		if !value.IsNil() {
			v.sanitizeValue(value.Elem())
		}
	case reflect.Struct:
		for i := 0; i < value.NumField(); i++ {
			v.sanitizeValue(value.Field(i))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < value.Len(); i++ {
			v.sanitizeValue(value.Index(i))
		}
	}
}
