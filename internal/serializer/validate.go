// Package serializer turns request bodies into validated store inputs and
// stored records into response bodies. It never touches the database.
package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/dukerupert/chorify/internal/apperr"
	"github.com/go-playground/validator/v10"
)

const (
	msgRequired = "this field is required"
	msgNull     = "this field may not be null"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors collects at most one message per payload field.
type fieldErrors map[string]string

func (fe fieldErrors) add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

// check validates a single value against validator tags and records the
// first failure under field.
func (fe fieldErrors) check(field string, value any, tags string) {
	if _, ok := fe[field]; ok {
		return
	}
	err := validate.Var(value, tags)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe[field] = message(verrs[0])
		return
	}
	fe[field] = err.Error()
}

// checkStruct validates s and records failures under prefix + field path,
// e.g. "items[2]" + ".quantity". An empty prefix records bare field names.
func (fe fieldErrors) checkStruct(prefix string, s any) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.add("body", err.Error())
		return
	}
	for _, v := range verrs {
		path := v.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		if prefix != "" {
			path = prefix + "." + path
		}
		fe.add(path, message(v))
	}
}

func (fe fieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return &apperr.Error{Code: apperr.EInvalid, Msg: "validation failed", Fields: fe}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "max":
		return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("ensure this field has at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	case "email":
		return "enter a valid email address"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// decode reads a JSON object into dst. An empty body decodes as {}.
// Unknown keys (including read-only ones like "id" or "user") are ignored.
func decode(r io.Reader, dst any) error {
	err := json.NewDecoder(r).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return apperr.Invalid(field, "incorrect type, expected "+typeName(typeErr.Type))
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperr.Invalid("body", "request body too large")
	}

	return apperr.Invalid("body", "malformed JSON")
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Float64:
		return "number"
	case reflect.Slice:
		return "list"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.String()
	}
}
