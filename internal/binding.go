package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is a collection of field errors returned by Bind helpers.
// A nil value means the payload is valid.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator instance.
// Field names in errors follow the json tag, then the query tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "query"} {
				name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
	})
	return validate
}

// RegisterValidation adds a custom validation tag to the shared validator.
// Call it during startup, before serving requests.
func RegisterValidation(tag string, fn validator.Func) error {
	return Validator().RegisterValidation(tag, fn)
}

// ValidateStruct validates v and returns field errors separately from
// system errors.
func ValidateStruct(v any) (ValidationErrors, error) {
	err := Validator().Struct(v)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validate: %w", err)
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	return out, nil
}

// fieldPath strips the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "ltfield":
		return "must be before " + fe.Param()
	default:
		return "failed on " + fe.Tag()
	}
}

// bindJSON decodes a JSON body into v.
// Decoding problems are reported as validation errors, not system errors.
func bindJSON(r *http.Request, v any) (ValidationErrors, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return ValidationErrors{{Field: "body", Message: "is required"}}, nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return ValidationErrors{{Field: typeErr.Field, Message: "must be of type " + typeErr.Type.String()}}, nil
		}
		return ValidationErrors{{Field: "body", Message: "must be valid JSON"}}, nil
	}
	return nil, nil
}

// bindQuery copies query parameters into the fields of the struct pointed
// to by v, matched by their `query` tag.
func bindQuery(values url.Values, v any) (ValidationErrors, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("bind query: expected pointer to struct, got %T", v)
	}
	rv = rv.Elem()
	rt := rv.Type()

	var verrs ValidationErrors
	for i := range rt.NumField() {
		field := rt.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("query"), ",")
		if name == "" || name == "-" {
			continue
		}
		raw := values.Get(name)
		if raw == "" {
			continue
		}
		if err := setField(rv.Field(i), raw); err != nil {
			verrs = append(verrs, FieldError{Field: name, Message: err.Error()})
		}
	}
	return verrs, nil
}

var timeType = reflect.TypeFor[time.Time]()

func setField(f reflect.Value, raw string) error {
	if f.Kind() == reflect.Pointer {
		elem := reflect.New(f.Type().Elem())
		if err := setField(elem.Elem(), raw); err != nil {
			return err
		}
		f.Set(elem)
		return nil
	}
	if f.Type() == timeType {
		t, err := parseTime(raw)
		if err != nil {
			return errors.New("must be an ISO 8601 date")
		}
		f.Set(reflect.ValueOf(t))
		return nil
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, ok := convertParam[int64](raw)
		if !ok {
			return errors.New("must be an integer")
		}
		f.SetInt(n)
	case reflect.Bool:
		b, ok := convertParam[bool](raw)
		if !ok {
			return errors.New("must be a boolean")
		}
		f.SetBool(b)
	case reflect.Float64:
		x, ok := convertParam[float64](raw)
		if !ok {
			return errors.New("must be a number")
		}
		f.SetFloat(x)
	default:
		return fmt.Errorf("unsupported field type %s", f.Type())
	}
	return nil
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q", raw)
}
