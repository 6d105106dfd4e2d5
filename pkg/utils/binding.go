package utils

import (
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Trimmer is a request body that strips surrounding whitespace from its fields.
type Trimmer interface {
	Trim()
}

// BindTrimmedJSON decodes the JSON body, trims it and then runs the binding tags,
// so padded emails still validate and "required" rejects whitespace-only values.
func BindTrimmedJSON(c *gin.Context, req Trimmer) error {
	if c.Request == nil || c.Request.Body == nil {
		return errors.New("invalid request")
	}
	if err := json.NewDecoder(c.Request.Body).Decode(req); err != nil {
		return err
	}
	req.Trim()
	return binding.Validator.ValidateStruct(req)
}

// FirstInvalid returns the struct field name and tag of the first failed binding rule.
// ok is false when err is not a validation error (e.g. malformed JSON).
func FirstInvalid(err error) (field, tag string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", "", false
	}
	return verrs[0].Field(), verrs[0].Tag(), true
}
