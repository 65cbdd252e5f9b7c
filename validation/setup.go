package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	setupOnce sync.Once
	slugRe    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Setup registers the custom tags on gin's validator and makes errors report JSON field names.
// It is safe to call more than once.
func Setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return IsSlug(fl.Field().String())
		})
		_ = v.RegisterValidation("contact_name", func(fl validator.FieldLevel) bool {
			return ValidateName(fl.Field().String()) == ""
		})
		_ = v.RegisterValidation("contact_phone", func(fl validator.FieldLevel) bool {
			return ValidatePhone(fl.Field().String()) == ""
		})
		_ = v.RegisterValidation("contact_email", func(fl validator.FieldLevel) bool {
			return ValidateEmail(fl.Field().String()) == ""
		})
	})
}

// Struct runs the binding validator on a value outside of a request, for nested payloads.
func Struct(obj any) error {
	Setup()
	return FromBinding(binding.Validator.ValidateStruct(obj))
}

// IsSlug reports whether s is already in slug form.
func IsSlug(s string) bool {
	return slugRe.MatchString(s)
}
