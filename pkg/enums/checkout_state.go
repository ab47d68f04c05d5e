package enums

// CheckoutState is a step of the place-order flow.
type CheckoutState string

const (
	CheckoutStateIdle              CheckoutState = "idle"
	CheckoutStateValidating        CheckoutState = "validating"
	CheckoutStateCreatingIntent    CheckoutState = "creating_intent"
	CheckoutStateConfirmingPayment CheckoutState = "confirming_payment"
	CheckoutStateSuccess           CheckoutState = "success"
)

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// CheckoutSource says where the checkout items came from.
type CheckoutSource string

const (
	CheckoutSourceCart   CheckoutSource = "cart"
	CheckoutSourceBuyNow CheckoutSource = "buy_now"
)

// String implements fmt.Stringer.
func (c CheckoutSource) String() string {
	return string(c)
}
