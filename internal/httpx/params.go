package httpx

import (
	"strconv"
	"strings"
	"time"

	"agri-backend/internal/repository"
	"agri-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const DateLayout = "2006-01-02"

// TrimAll trims each non-nil string in place so length rules see the trimmed value.
func TrimAll(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// ParamID reads a positive integer route parameter.
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return uint(id), nil
}

// QueryID reads an optional positive integer query parameter; absent yields 0.
func QueryID(c *fiber.Ctx, name string) (uint, error) {
	s := strings.TrimSpace(c.Query(name))
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, validation.NewFieldError(name, "must be a positive integer")
	}
	return uint(id), nil
}

// ParseDate parses a YYYY-MM-DD value as UTC midnight.
func ParseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, validation.NewFieldError(field, "must be a date formatted YYYY-MM-DD")
	}
	return t, nil
}

// QueryDateRange reads inclusive "from" and "to" days and returns the
// equivalent half open range.
func QueryDateRange(c *fiber.Ctx) (repository.DateRange, error) {
	var r repository.DateRange
	if s := c.Query("from"); s != "" {
		from, err := ParseDate("from", s)
		if err != nil {
			return r, err
		}
		r.From = from
	}
	if s := c.Query("to"); s != "" {
		to, err := ParseDate("to", s)
		if err != nil {
			return r, err
		}
		r.To = to.AddDate(0, 0, 1)
	}
	if !r.From.IsZero() && !r.To.IsZero() && !r.From.Before(r.To) {
		return r, validation.NewFieldError("to", "must not be before from")
	}
	return r, nil
}

// QueryBool reads an optional true/false query parameter.
func QueryBool(c *fiber.Ctx, name string) (*bool, error) {
	s := strings.TrimSpace(c.Query(name))
	if s == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, validation.NewFieldError(name, "must be true or false")
	}
	return &b, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today is the current calendar day in loc, as UTC midnight like stored dates.
func Today(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
