package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	// Report validation failures under the JSON field names clients send.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	}
}

// ok writes a success envelope: {"success": true, "message"?: ..., <data>...}.
func ok(c *gin.Context, status int, message string, data gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range data {
		body[k] = v
	}
	c.JSON(status, body)
}

// fail maps err onto the error envelope and status code.
func fail(c *gin.Context, err error) {
	var (
		verr   *models.ValidationError
		fields validator.ValidationErrors
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false, "message": "The given data was invalid.", "errors": verr.Fields,
		})
	case errors.As(err, &fields):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"success": false, "message": "The given data was invalid.", "errors": fieldErrors(fields),
		})
	case errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrVariantMismatch),
		errors.Is(err, models.ErrZoneInUse):
		message(c, http.StatusBadRequest, domainMessage(err))
	case errors.Is(err, models.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		message(c, http.StatusUnauthorized, "Invalid credentials.")
	case errors.Is(err, models.ErrForbidden):
		message(c, http.StatusForbidden, "Unauthorized.")
	case errors.Is(err, models.ErrNotFound):
		message(c, http.StatusNotFound, "Resource not found.")
	case errors.Is(err, models.ErrInsufficientStock), errors.Is(err, models.ErrInvalidTransition):
		message(c, http.StatusConflict, domainMessage(err))
	case errors.Is(err, models.ErrConflict):
		message(c, http.StatusConflict, capitalize(strings.TrimSuffix(err.Error(), ": "+models.ErrConflict.Error())))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Something went wrong. Please try again.",
			"error":   err.Error(),
		})
	}
}

// badRequest reports a malformed body or query.
func badRequest(c *gin.Context, err error) {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		fail(c, err)
		return
	}
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"success": false, "message": "The given data was invalid.", "error": err.Error(),
	})
}

func message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

func notFound(c *gin.Context, what string) {
	message(c, http.StatusNotFound, what+" not found.")
}

func fieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		name := fe.Field()
		switch fe.Tag() {
		case "required":
			out[name] = "The " + name + " field is required."
		case "email":
			out[name] = "The " + name + " must be a valid email address."
		case "min", "gte", "gt":
			out[name] = "The " + name + " must be at least " + fe.Param() + "."
		case "max", "lte":
			out[name] = "The " + name + " may not be greater than " + fe.Param() + "."
		case "oneof":
			out[name] = "The selected " + name + " is invalid."
		default:
			out[name] = "The " + name + " is invalid."
		}
	}
	return out
}

// domainMessage returns the innermost error's text as a sentence.
func domainMessage(err error) string {
	for next := errors.Unwrap(err); next != nil; next = errors.Unwrap(err) {
		err = next
	}
	return capitalize(err.Error())
}

func capitalize(msg string) string {
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
