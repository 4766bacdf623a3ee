package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	stdhttp "net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// jsonValidator reports field errors by their json names.
func jsonValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			if tag == "" || tag == "-" {
				return fld.Name
			}
			return tag
		})
		validate = v
	})
	return validate
}

// bindJSON decodes a single JSON object from the request body into T and
// validates it. Unknown fields, trailing data and bodies over maxBodyBytes
// are rejected.
func bindJSON[T any](w stdhttp.ResponseWriter, r *stdhttp.Request) (T, error) {
	var dst T
	body := stdhttp.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dst); err != nil {
		var tooLarge *stdhttp.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dst, fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, tooLarge.Limit)
		}
		return dst, fmt.Errorf("%w: invalid JSON: %v", domain.ErrInvalidInput, err)
	}
	if dec.More() {
		return dst, fmt.Errorf("%w: unexpected trailing data", domain.ErrInvalidInput)
	}

	if err := jsonValidator().Struct(dst); err != nil {
		return dst, fmt.Errorf("%w: %s", domain.ErrInvalidInput, describeValidation(err))
	}
	return dst, nil
}

// describeValidation names the first failing field.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
	return err.Error()
}
