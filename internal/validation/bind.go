package validation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
)

// ErrorBody is the error envelope every endpoint answers with.
func ErrorBody(status int, message string, details any) gin.H {
	return gin.H{
		"status":  status,
		"message": message,
		"details": details,
	}
}

type normalizer interface {
	Normalize()
}

// BindAndValidate binds JSON body into `out` and runs validation.
// If validation fails, it writes a 400 response and returns an error for the handler to short-circuit.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody(http.StatusBadRequest, "invalid request body", err.Error()))
		return err
	}
	return validate(c, out, v)
}

// BindQueryAndValidate is BindAndValidate for query parameters.
func BindQueryAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindQuery(out); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody(http.StatusBadRequest, "invalid query parameters", err.Error()))
		return err
	}
	return validate(c, out, v)
}

func validate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if n, ok := out.(normalizer); ok {
		n.Normalize()
	}
	if err := v.Struct(out); err != nil {
		c.JSON(http.StatusBadRequest, ErrorBody(http.StatusBadRequest, "validation failed", validationErrorsToMap(err)))
		return err
	}
	return nil
}

func validationErrorsToMap(err error) map[string]string {
	out := map[string]string{}
	if ve, ok := err.(validatorv10.ValidationErrors); ok {
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
	} else {
		out["error"] = err.Error()
	}
	return out
}
