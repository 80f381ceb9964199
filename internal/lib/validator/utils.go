package validator

import (
	"fmt"
	"moviehub/proj/internal/domain/fields"
	"moviehub/proj/internal/domain/filters"
	"moviehub/proj/internal/utils"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"time"

	govalidator "github.com/go-playground/validator/v10"
)

// Error carries field scoped validation messages keyed by json field name.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// New returns a validator with the catalog's custom tags registered.
func New() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	v.RegisterValidation("agerating", ValidateAgeRating)
	v.RegisterValidation("genres", ValidateGenres)
	v.RegisterValidation("posterref", ValidatePosterRef)
	v.RegisterValidation("moviesort", ValidateMovieSort)
	v.RegisterValidation("movieyear", ValidateMovieYear)
	return v
}

func getFieldName(obj any, origFieldName string) (fieldName string) {
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	field, found := t.FieldByName(origFieldName)
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", origFieldName, t.Name()))
	}
	if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
		jsonName := strings.Split(tag, ",")[0]
		if jsonName != "" {
			return jsonName
		}
	}
	return utils.CamelToSnake(origFieldName)
}

func ProcessValidationErrors(obj any, errs govalidator.ValidationErrors) map[string]string {
	processedErrors := make(map[string]string)
	for _, e := range errs {
		processedErrors[getFieldName(obj, e.StructField())] = GetErrorMsgForField(obj, e)
	}
	return processedErrors
}

func ValidateStruct(validator *govalidator.Validate, obj any) (validationErrs map[string]string) {
	if err := validator.Struct(obj); err != nil {
		validationErrs = ProcessValidationErrors(obj, err.(govalidator.ValidationErrors))
	}
	return
}

// Check validates obj and wraps any failures in *Error.
func Check(validator *govalidator.Validate, obj any) error {
	if errs := ValidateStruct(validator, obj); len(errs) > 0 {
		return &Error{Fields: errs}
	}
	return nil
}

func GetErrorMsgForField(obj any, err govalidator.FieldError) (errorMsg string) {
	t := reflect.TypeOf(obj)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	field, found := t.FieldByName(err.StructField())
	if !found {
		panic(fmt.Sprintf("Field %s not found in type %s", err.StructField(), t.Name()))
	}
	errorMsg = field.Tag.Get("errorMsg")
	if errorMsg == "" {
		switch err.Tag() {
		case "required":
			errorMsg = "This field is required"
		case "max":
			errorMsg = fmt.Sprintf("The maximum length is %s", err.Param())
		case "min":
			errorMsg = fmt.Sprintf("The minimum length is %s", err.Param())
		case "gte":
			errorMsg = fmt.Sprintf("Value should be greater than or equal to %s", err.Param())
		case "lte":
			errorMsg = fmt.Sprintf("Value should be less than or equal to %s", err.Param())
		case "oneof":
			errorMsg = fmt.Sprintf("Value should be one of %s", err.Param())
		case "url":
			errorMsg = "Value must be a valid URL"
		case "email":
			errorMsg = "Value must be a valid email address"
		case "agerating":
			errorMsg = "Value must be one of G, PG, PG-13, R, NC-17"
		case "genres":
			errorMsg = "Genres must contain letters and spaces only (e.g. Action, Drama)"
		case "posterref":
			errorMsg = "Value must be an http(s) URL or a local path starting with '/'"
		case "moviesort":
			errorMsg = "Value must be a sortable movie field and direction (e.g. title:asc, year:desc)"
		case "movieyear":
			errorMsg = fmt.Sprintf("Value should not be later than %d", time.Now().Year()+1)
		default:
			errorMsg = "This field is invalid"
		}
	}
	return
}

// CUSTOM VALIDATORS

func ValidateAgeRating(fl govalidator.FieldLevel) bool {
	return fields.AgeRating(fl.Field().String()).Valid()
}

var genrePattern = regexp.MustCompile(`^[\p{L} ]+$`)

func ValidateGenres(fl govalidator.FieldLevel) bool {
	genres, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, g := range genres {
		if !genrePattern.MatchString(strings.TrimSpace(g)) {
			return false
		}
	}
	return true
}

func ValidatePosterRef(fl govalidator.FieldLevel) bool {
	ref := strings.TrimSpace(fl.Field().String())
	if strings.HasPrefix(ref, "/") {
		return true
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func ValidateMovieSort(fl govalidator.FieldLevel) bool {
	return filters.ValidSort(fl.Field().String())
}

func ValidateMovieYear(fl govalidator.FieldLevel) bool {
	return fl.Field().Int() <= int64(time.Now().Year()+1)
}
