package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	domain "taskman/internal/domain/errors"
	"taskman/internal/domain/models"
)

const (
	maxPageLimit     = 100
	defaultPageLimit = 10
)

const dateOnlyFormat = "2006-01-02"

// parseDueDate accepts a full RFC 3339 timestamp or a date-only value.
func parseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(dateOnlyFormat, s)
}

// dueDateValue converts a validated dueDate string to its time value. Nil or
// empty means no date.
func dueDateValue(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := parseDueDate(*s)
	if err != nil {
		return nil
	}
	return &t
}

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their json name so error maps line up with the
	// request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// password: at least 6 chars with one uppercase, one lowercase and one
	// digit.
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) < 6 {
			return false
		}
		var upper, lower, digit bool
		for _, r := range s {
			switch {
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsLower(r):
				lower = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		return upper && lower && digit
	})

	_ = v.RegisterValidation("duedate", func(fl validator.FieldLevel) bool {
		_, err := parseDueDate(fl.Field().String())
		return err == nil
	})

	return v
}

// messageForTag maps a failed rule to a human-readable field message.
// Evaluated in rule order: the first failing rule per field wins.
func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "password":
		return "must be at least 6 characters with one uppercase letter, one lowercase letter and one digit"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "duedate":
		return "must be an RFC 3339 timestamp or a YYYY-MM-DD date"
	default:
		return "is invalid"
	}
}

func validationMessages(err error) map[string]string {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			name := fe.Field()
			if name == "" {
				name = strings.ToLower(fe.StructField())
			}
			if _, seen := fields[name]; !seen {
				fields[name] = messageForTag(fe)
			}
		}
	}
	if len(fields) == 0 {
		fields["body"] = "is invalid"
	}
	return fields
}

// bindJSON decodes the request body; on failure it writes the 400 response
// and returns false. Callers normalize string fields (trimming, email
// casing) between binding and validateStruct.
func bindJSON(ctx *gin.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		respondError(ctx, http.StatusBadRequest, domain.ErrBadRequest.Error())
		return false
	}
	return true
}

// validateStruct runs the declarative rules and rejects the request with the
// accumulated per-field messages on any violation.
func (api *TaskAPI) validateStruct(ctx *gin.Context, req any) bool {
	if err := api.validate.Struct(req); err != nil {
		respondValidation(ctx, validationMessages(err))
		return false
	}
	return true
}

// parsePathID parses an integer path identifier; 0 and false when malformed.
func parsePathID(ctx *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(param), 10, 64)
	if err != nil || id < 1 {
		respondValidation(ctx, map[string]string{"id": "must be a positive integer"})
		return 0, false
	}
	return id, true
}

// parseTaskFilter accumulates every query-string violation before rejecting,
// so the caller sees all problems at once.
func parseTaskFilter(ctx *gin.Context) (models.TaskFilter, map[string]string) {
	filter := models.TaskFilter{Page: 1, Limit: defaultPageLimit}
	fields := make(map[string]string)

	if v := ctx.Query("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			fields["page"] = "must be an integer greater than or equal to 1"
		} else {
			filter.Page = p
		}
	}
	if v := ctx.Query("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > maxPageLimit {
			fields["limit"] = fmt.Sprintf("must be an integer between 1 and %d", maxPageLimit)
		} else {
			filter.Limit = l
		}
	}
	if v := ctx.Query("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fields["completed"] = "must be a boolean"
		} else {
			filter.Completed = &b
		}
	}
	if v := ctx.Query("priority"); v != "" {
		switch v {
		case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
			filter.Priority = v
		default:
			fields["priority"] = "must be one of: low, medium, high"
		}
	}
	filter.Search = strings.TrimSpace(ctx.Query("search"))

	if len(fields) == 0 {
		fields = nil
	}
	return filter, fields
}
