package validation

import (
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator. Field errors are reported under the
// json or form name the client sent rather than the Go field name.
func New() *validatorv10.Validate {
	v := validatorv10.New()
	v.RegisterTagNameFunc(fieldName)
	return v
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}
