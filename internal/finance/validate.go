package finance

import (
	"math"
	"strconv"
	"strings"

	"studiodesk/internal/models"
)

const (
	FieldName               = "name"
	FieldAddress            = "address"
	FieldMobile             = "mobile"
	FieldServiceDescription = "service_description"
	FieldDate               = "date"
	FieldTotal              = "total"
	FieldAdvance            = "advance"
	FieldStatus             = "status"
)

// ValidateCreate turns a submission into a new booking without identity or
// timestamps. Status defaults to confirmed.
func ValidateCreate(in models.BookingInput) (models.Booking, error) {
	var errs ValidationErrors
	var b models.Booking

	b.Name = requiredText(&errs, FieldName, in.Name)
	b.Address = requiredText(&errs, FieldAddress, in.Address)
	b.Mobile = requiredText(&errs, FieldMobile, in.Mobile)
	b.ServiceDescription = requiredText(&errs, FieldServiceDescription, in.ServiceDescription)

	if in.Date == nil || strings.TrimSpace(*in.Date) == "" {
		errs.add(FieldDate, "is required")
	} else if d, err := ParseDate(*in.Date); err != nil {
		errs.add(FieldDate, "must be a date in YYYY-MM-DD format")
	} else {
		b.Date = d
	}

	if in.Total == nil || strings.TrimSpace(*in.Total) == "" {
		errs.add(FieldTotal, "is required")
	} else if v, ok := amount(&errs, FieldTotal, *in.Total); ok {
		b.Total = v
	}

	if in.Advance != nil && strings.TrimSpace(*in.Advance) != "" {
		if v, ok := amount(&errs, FieldAdvance, *in.Advance); ok {
			b.Advance = v
		}
	}

	if in.Notes != nil {
		b.Notes = strings.TrimSpace(*in.Notes)
	}

	b.Status = models.StatusConfirmed
	if in.Status != nil && strings.TrimSpace(*in.Status) != "" {
		status := NormalizeStatus(*in.Status)
		switch status {
		case models.StatusPending, models.StatusConfirmed:
			b.Status = status
		default:
			errs.add(FieldStatus, "new bookings must be pending or confirmed")
		}
	}

	if err := errs.orNil(); err != nil {
		return models.Booking{}, err
	}
	return b, nil
}

// ValidateEdit checks a partial edit of b and returns the patch to store.
// Terminal bookings cannot be edited. Status changes go through
// ApplyTransition, never through an edit.
func ValidateEdit(b models.Booking, in models.BookingInput) (models.BookingPatch, error) {
	if err := CheckTransition(ActionEdit, b.Status); err != nil {
		return models.BookingPatch{}, err
	}

	var errs ValidationErrors
	var p models.BookingPatch

	p.Name = optionalText(&errs, FieldName, in.Name)
	p.Address = optionalText(&errs, FieldAddress, in.Address)
	p.Mobile = optionalText(&errs, FieldMobile, in.Mobile)
	p.ServiceDescription = optionalText(&errs, FieldServiceDescription, in.ServiceDescription)

	if in.Date != nil {
		if strings.TrimSpace(*in.Date) == "" {
			errs.add(FieldDate, "is required")
		} else if d, err := ParseDate(*in.Date); err != nil {
			errs.add(FieldDate, "must be a date in YYYY-MM-DD format")
		} else {
			p.Date = &d
		}
	}

	if in.Total != nil {
		if strings.TrimSpace(*in.Total) == "" {
			errs.add(FieldTotal, "is required")
		} else if v, ok := amount(&errs, FieldTotal, *in.Total); ok {
			p.Total = &v
		}
	}

	if in.Advance != nil {
		if strings.TrimSpace(*in.Advance) == "" {
			zero := 0.0
			p.Advance = &zero
		} else if v, ok := amount(&errs, FieldAdvance, *in.Advance); ok {
			p.Advance = &v
		}
	}

	if in.Notes != nil {
		notes := strings.TrimSpace(*in.Notes)
		p.Notes = &notes
	}

	if in.Status != nil && strings.TrimSpace(*in.Status) != "" &&
		NormalizeStatus(*in.Status) != NormalizeStatus(b.Status) {
		errs.add(FieldStatus, "use cancel, complete or confirm to change status")
	}

	if err := errs.orNil(); err != nil {
		return models.BookingPatch{}, err
	}
	return p, nil
}

func requiredText(errs *ValidationErrors, field string, v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		errs.add(field, "is required")
		return ""
	}
	return strings.TrimSpace(*v)
}

func optionalText(errs *ValidationErrors, field string, v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		errs.add(field, "is required")
		return nil
	}
	return &trimmed
}

func amount(errs *ValidationErrors, field, raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		errs.add(field, "must be a number")
		return 0, false
	}
	if v < 0 {
		errs.add(field, "must not be negative")
		return 0, false
	}
	return v, true
}
