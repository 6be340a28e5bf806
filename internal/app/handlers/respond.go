package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/shop-checkout/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/shop-checkout/internal/service"
)

var validate = newValidator()

// newValidator называет поля в ошибках по json-тегу, как их видит клиент
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeDetail(w http.ResponseWriter, logger *slog.Logger, status int, detail string) {
	writeJSON(w, logger, status, map[string]string{"detail": detail})
}

// writeError переводит ошибки сервисного слоя в HTTP-ответ
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, logger, http.StatusBadRequest, map[string]string{vErr.Field: vErr.Message})
	case errors.Is(err, service.ErrEmptyCart):
		writeJSON(w, logger, http.StatusBadRequest, map[string]string{"cart": "Cart is empty"})
	case errors.Is(err, service.ErrNotFound):
		writeDetail(w, logger, http.StatusNotFound, "Not found.")
	case errors.Is(err, service.ErrPermission):
		writeDetail(w, logger, http.StatusForbidden, "You do not have permission to perform this action.")
	case errors.Is(err, service.ErrConflict):
		writeDetail(w, logger, http.StatusConflict, "Object is referenced by existing orders and cannot be deleted.")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeDetail(w, logger, http.StatusUnauthorized, "Invalid credentials.")
	default:
		logger.Error("request failed", slog.Any("error", err))
		writeDetail(w, logger, http.StatusInternalServerError, "Internal server error.")
	}
}

// decodeAndValidate читает JSON-тело и проверяет его тегами validate.
// При ошибке ответ уже записан и возвращается false
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, dst any, allowEmpty bool) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			logger.Warn("invalid request: decoding error", slog.Any("error", err))
			writeDetail(w, logger, http.StatusBadRequest, "invalid request")
			return false
		}
	}

	if err := validate.Struct(dst); err != nil {
		logger.Warn("invalid request: validation error", slog.Any("error", err))
		writeJSON(w, logger, http.StatusBadRequest, validationDetails(err))
		return false
	}
	return true
}

func validationDetails(err error) map[string]string {
	details := map[string]string{}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		details["detail"] = "validation error"
		return details
	}
	for _, fe := range vErrs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "This field is required."
		case "gt", "min":
			details[fe.Field()] = fmt.Sprintf("Ensure this value is greater than or equal to %s.", minValue(fe))
		case "lte":
			details[fe.Field()] = fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
		case "max":
			details[fe.Field()] = fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		case "email":
			details[fe.Field()] = "Enter a valid email address."
		default:
			details[fe.Field()] = "Invalid value."
		}
	}
	return details
}

// minValue - gt=0 для целых то же, что min=1
func minValue(fe validator.FieldError) string {
	if fe.Tag() != "gt" {
		return fe.Param()
	}
	n, err := strconv.Atoi(fe.Param())
	if err != nil {
		return fe.Param()
	}
	return strconv.Itoa(n + 1)
}

// callerID достает id пользователя, положенный JWT middleware
func callerID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	userID, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		logger.Error("userID not found in context")
		writeDetail(w, logger, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return userID, true
}

// idParam разбирает числовой параметр пути. Нечисловой id - это несуществующий ресурс
func idParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, logger, http.StatusNotFound, "Not found.")
		return 0, false
	}
	return id, true
}
