// Package handler exposes the engine over HTTP. Handlers only decode,
// validate and render; every rule lives in the services.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	customError "github.com/krazydeals07-dot/eBachatgat-Backend-App/pkg/errors"
)

const maxBodyBytes = 1 << 20

// dateLayout is the query-string format for dates.
const dateLayout = "2006-01-02"

// NewValidator returns a validator that understands decimal.Decimal fields
// through the decimal_gt, decimal_gte and decimal_lte rules.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	rules := map[string]func(cmp int) bool{
		"decimal_gt":  func(cmp int) bool { return cmp > 0 },
		"decimal_gte": func(cmp int) bool { return cmp >= 0 },
		"decimal_lte": func(cmp int) bool { return cmp <= 0 },
	}
	for tag, ok := range rules {
		ok := ok
		// registration only fails on an empty tag
		_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			value, err := decimal.NewFromString(fl.Field().String())
			if err != nil {
				return false
			}
			bound, err := decimal.NewFromString(fl.Param())
			if err != nil {
				return false
			}
			return ok(value.Cmp(bound))
		})
	}
	return v
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	if err := readJSON(w, r, dst); err != nil {
		return err
	}
	return validate(v, dst)
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		return customError.Validation("invalid request body: %v", err)
	}
	return nil
}

func validate(v *validator.Validate, dst any) error {
	err := v.Struct(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return customError.Validation("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return customError.Validation("%s", strings.Join(msgs, "; "))
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, customError.Validation("%s must be a UUID", name)
	}
	return id, nil
}

// queryID returns nil when the parameter is absent.
func queryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, customError.Validation("%s must be a UUID", name)
	}
	return &id, nil
}

func queryDate(r *http.Request, name string, loc *time.Location) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return nil, customError.Validation("%s must be a %s date", name, dateLayout)
	}
	return &t, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, customError.Validation("%s must be a non-negative integer", name)
	}
	return n, nil
}

// queryList splits comma-separated and repeated parameters.
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func queryIDs(r *http.Request, name string) ([]uuid.UUID, error) {
	raw := queryList(r, name)
	ids := make([]uuid.UUID, 0, len(raw))
	for _, v := range raw {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, customError.Validation("%s must be a list of UUIDs", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
