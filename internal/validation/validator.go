// Package validation wires go-playground/validator into echo and converts
// its errors into a per-field message map rendered as HTTP 422.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/gym-membership/internal/model"
)

// Errors maps a request field (its JSON name) to human readable messages.
type Errors map[string][]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e[k], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add appends a message for field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Err returns e as an error, or nil when no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Field builds a single-field failure.
func Field(field, msg string) Errors {
	return Errors{field: {msg}}
}

// Validator implements echo.Validator.
type Validator struct {
	v *validator.Validate
}

// New registers the domain tags (role, user_status, plan_type, weekday,
// gender, membership_status, clock, isodate) and reports field names by
// their json tag.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// Nullable fields validate as the pointer they carry, so omitempty
	// skips a missing key or an explicit null.
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		return f.Interface().(model.Nullable[int]).Value
	}, model.Nullable[int]{})
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		return f.Interface().(model.Nullable[string]).Value
	}, model.Nullable[string]{})
	enum := func(parse func(string) bool) validator.Func {
		return func(fl validator.FieldLevel) bool { return parse(fl.Field().String()) }
	}
	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}
	must("role", enum(func(s string) bool { _, ok := model.ParseRole(s); return ok }))
	must("user_status", enum(func(s string) bool { _, ok := model.ParseUserStatus(s); return ok }))
	must("plan_type", enum(func(s string) bool { _, ok := model.ParsePlanType(s); return ok }))
	must("weekday", enum(func(s string) bool { _, ok := model.ParseWeekday(s); return ok }))
	must("gender", enum(func(s string) bool { _, ok := model.ParseGender(s); return ok }))
	must("membership_status", enum(func(s string) bool { _, ok := model.ParseMembershipStatus(s); return ok }))
	must("clock", enum(func(s string) bool { _, err := model.ParseClock(s); return err == nil }))
	must("isodate", enum(func(s string) bool { _, err := model.ParseDate(s); return err == nil }))
	return &Validator{v: v}
}

// Validate runs the struct tags of i.  A failing field yields Errors; any
// other problem (e.g. a non-struct argument) is returned unchanged.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := Errors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s.", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s may not be greater than %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s may not be greater than %s.", field, fe.Param())
	case "gte":
		return fmt.Sprintf("The %s must be greater than or equal to %s.", field, fe.Param())
	case "gt":
		return fmt.Sprintf("The %s must be greater than %s.", field, fe.Param())
	case "clock":
		return fmt.Sprintf("The %s must be a time in HH:MM format.", field)
	case "isodate":
		return fmt.Sprintf("The %s must be a date in YYYY-MM-DD format.", field)
	case "role", "user_status", "plan_type", "weekday", "gender", "membership_status":
		return fmt.Sprintf("The selected %s is invalid.", field)
	}
	return fmt.Sprintf("The %s field is invalid (%s).", field, fe.Tag())
}

// Require merges a "required" failure for every field of present that is
// false into err.  err may be nil or an Errors; anything else is returned
// as is.
func Require(err error, present map[string]bool) error {
	out := Errors{}
	if err != nil {
		var verrs Errors
		if !errors.As(err, &verrs) {
			return err
		}
		for k, v := range verrs {
			out[k] = v
		}
	}
	for field, ok := range present {
		if !ok && len(out[field]) == 0 {
			out.Add(field, fmt.Sprintf("The %s field is required.", strings.ReplaceAll(field, "_", " ")))
		}
	}
	return out.Err()
}
