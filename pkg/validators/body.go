package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	pkgerrors "github.com/arooba/pricing-engine/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	// Decimals are validated through their canonical string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		if nd, ok := field.Interface().(decimal.NullDecimal); ok && nd.Valid {
			return nd.Decimal.String()
		}
		return ""
	}, decimal.Decimal{}, decimal.NullDecimal{})
	_ = v.RegisterValidation("dpos", decimalPositive)
	_ = v.RegisterValidation("dgte0", decimalNonNegative)
	return v
}

func decimalPositive(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive()
}

func decimalNonNegative(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.IsNegative()
}

// Struct runs the tag validations on v and returns a CodeValidation error
// keyed by JSON field name.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// DecodeJSON decodes a single JSON document from r into dest and validates it.
func DecodeJSON(r io.Reader, dest any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}
	return Struct(dest)
}

// Decoder reads a stream of JSON documents, validating each one.
type Decoder struct {
	dec    *json.Decoder
	broken error
}

func NewDecoder(r io.Reader) *Decoder {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return &Decoder{dec: dec}
}

// Next decodes the next document into dest. It returns io.EOF once the stream
// is exhausted. A document with the wrong shape is reported and skipped; a
// syntax error ends the stream and every later call repeats it.
func (d *Decoder) Next(dest any) error {
	if d.broken != nil {
		return d.broken
	}
	if err := d.dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		wrapped := pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) || errors.Is(err, io.ErrUnexpectedEOF) {
			d.broken = wrapped
		}
		return wrapped
	}
	return Struct(dest)
}

// Broken reports whether the stream can no longer be read.
func (d *Decoder) Broken() bool {
	return d.broken != nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "dpos":
		return "must be positive"
	case "dgte0":
		return "must not be negative"
	}
	return "is invalid"
}
