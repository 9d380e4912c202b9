package jobs

import "strings"

// ValidatePayload checks that payload is the right type for t and carries its
// required IDs.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	switch t {
	case JobOrderPlaced:
		var p OrderPlacedPayload
		switch v := payload.(type) {
		case OrderPlacedPayload:
			p = v
		case *OrderPlacedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.OrderID) {
			return ErrInvalidJobPayload
		}
		return nil

	case JobOrderStatusChanged:
		var p OrderStatusChangedPayload
		switch v := payload.(type) {
		case OrderStatusChangedPayload:
			p = v
		case *OrderStatusChangedPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.OrderID) || blank(p.Status) {
			return ErrInvalidJobPayload
		}
		return nil

	case JobWelcome:
		var p WelcomePayload
		switch v := payload.(type) {
		case WelcomePayload:
			p = v
		case *WelcomePayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if blank(p.UserID) {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
