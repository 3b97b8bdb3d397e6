package handler

import (
    "errors"
    "fmt"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into echo so handlers can
// call c.Validate on bound request bodies.  Field names in messages are
// the JSON names clients send.
type RequestValidator struct {
    v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i any) error {
    err := rv.v.Struct(i)
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) || len(verrs) == 0 {
        return err
    }
    return errors.New(describe(verrs[0]))
}

func describe(fe validator.FieldError) string {
    // drop the root struct name: "reservationRequest.client.email" -> "client.email"
    field := fe.Namespace()
    if i := strings.IndexByte(field, '.'); i >= 0 {
        field = field[i+1:]
    }
    switch fe.Tag() {
    case "required":
        return fmt.Sprintf("%s is required", field)
    case "email":
        return fmt.Sprintf("%s must be a valid email address, got %q", field, fe.Value())
    case "oneof":
        return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
    case "gt", "gte", "min":
        return fmt.Sprintf("%s must be %s %s", field, map[string]string{"gt": "greater than", "gte": "at least", "min": "at least"}[fe.Tag()], fe.Param())
    }
    return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
