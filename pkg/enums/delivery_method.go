package enums

import "fmt"

// DeliveryMethod is how a buyer receives the items of a checkout.
type DeliveryMethod string

const (
	DeliveryMethodPickup   DeliveryMethod = "pickup"
	DeliveryMethodDelivery DeliveryMethod = "delivery"
	DeliveryMethodShipping DeliveryMethod = "shipping"
)

var validDeliveryMethods = []DeliveryMethod{
	DeliveryMethodPickup,
	DeliveryMethodDelivery,
	DeliveryMethodShipping,
}

// DeliveryMethods lists every method in display order.
func DeliveryMethods() []DeliveryMethod {
	out := make([]DeliveryMethod, len(validDeliveryMethods))
	copy(out, validDeliveryMethods)
	return out
}

// String implements fmt.Stringer.
func (d DeliveryMethod) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DeliveryMethod.
func (d DeliveryMethod) IsValid() bool {
	for _, candidate := range validDeliveryMethods {
		if candidate == d {
			return true
		}
	}
	return false
}

// RequiresAddress reports whether the buyer must pick an address for this method.
func (d DeliveryMethod) RequiresAddress() bool {
	return d == DeliveryMethodDelivery || d == DeliveryMethodShipping
}

// ParseDeliveryMethod converts raw input into a DeliveryMethod.
func ParseDeliveryMethod(value string) (DeliveryMethod, error) {
	for _, candidate := range validDeliveryMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery method %q", value)
}
