package validation

import (
	"strconv"
	"strings"
)

// Customer is the contact block of a booking. Empty Name and Note are omitted
// from request bodies.
type Customer struct {
	Phone string `json:"phone" validate:"required,phone"`
	Name  string `json:"name" validate:"max=120"`
	Note  string `json:"note" validate:"max=500"`
}

// ParseCustomer trims the raw fields and checks them.
func ParseCustomer(phone, name, note string) (Customer, error) {
	c := Customer{
		Phone: strings.TrimSpace(phone),
		Name:  strings.TrimSpace(name),
		Note:  strings.TrimSpace(note),
	}
	if err := check(c, nil); err != nil {
		return Customer{}, err
	}
	return c, nil
}

// Login is the admin sign-in form. The password is not trimmed.
type Login struct {
	TenantSlug string `json:"tenant_slug" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
}

// ParseLogin trims the slug and email and checks the form.
func ParseLogin(tenantSlug, email, password string) (Login, error) {
	l := Login{
		TenantSlug: strings.TrimSpace(tenantSlug),
		Email:      strings.TrimSpace(email),
		Password:   password,
	}
	if err := check(l, nil); err != nil {
		return Login{}, err
	}
	return l, nil
}

// ServiceInput holds the raw text of the service form.
type ServiceInput struct {
	Name                string
	DurationMinutes     string
	BufferBeforeMinutes string
	BufferAfterMinutes  string
	PriceCents          string
	DisplayOrder        string
}

// Service is a checked service form. A nil PriceCents means no price.
type Service struct {
	Name                string `json:"name" validate:"required,max=120"`
	DurationMinutes     int    `json:"duration_minutes" validate:"min=1"`
	BufferBeforeMinutes int    `json:"buffer_before_minutes" validate:"min=0"`
	BufferAfterMinutes  int    `json:"buffer_after_minutes" validate:"min=0"`
	PriceCents          *int   `json:"price_cents" validate:"omitnil,min=0"`
	DisplayOrder        int    `json:"display_order" validate:"min=0"`
}

// ParseService coerces the numeric fields and checks the form. An empty price
// becomes nil; other empty numbers count as zero.
func ParseService(in ServiceInput) (Service, error) {
	var coerced Errors
	s := Service{
		Name:                strings.TrimSpace(in.Name),
		DurationMinutes:     coerceInt(&coerced, "duration_minutes", in.DurationMinutes),
		BufferBeforeMinutes: coerceInt(&coerced, "buffer_before_minutes", in.BufferBeforeMinutes),
		BufferAfterMinutes:  coerceInt(&coerced, "buffer_after_minutes", in.BufferAfterMinutes),
		DisplayOrder:        coerceInt(&coerced, "display_order", in.DisplayOrder),
	}
	if price := strings.TrimSpace(in.PriceCents); price != "" {
		p := coerceInt(&coerced, "price_cents", price)
		s.PriceCents = &p
	}
	if err := check(s, coerced); err != nil {
		return Service{}, err
	}
	return s, nil
}

// StaffInput holds the raw text of the staff form.
type StaffInput struct {
	DisplayName  string
	DisplayOrder string
	ServiceIDs   []string
}

// Staff is a checked staff form.
type Staff struct {
	DisplayName  string   `json:"display_name" validate:"required,max=120"`
	DisplayOrder int      `json:"display_order" validate:"min=0"`
	ServiceIDs   []string `json:"service_ids" validate:"dive,required"`
}

// ParseStaff coerces the display order and checks the form.
func ParseStaff(in StaffInput) (Staff, error) {
	var coerced Errors
	s := Staff{
		DisplayName:  strings.TrimSpace(in.DisplayName),
		DisplayOrder: coerceInt(&coerced, "display_order", in.DisplayOrder),
		ServiceIDs:   append([]string{}, in.ServiceIDs...),
	}
	if err := check(s, coerced); err != nil {
		return Staff{}, err
	}
	return s, nil
}

func coerceInt(errs *Errors, field, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, FieldError{Field: field, Message: "Invalid " + strings.ReplaceAll(field, "_", " ") + "."})
		return 0
	}
	return n
}
