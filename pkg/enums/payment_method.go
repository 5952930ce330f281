package enums

import (
	"fmt"
	"strings"
)

// PaymentMethod identifies how the buyer intends to pay.
type PaymentMethod string

const (
	PaymentMethodCOD  PaymentMethod = "cod"
	PaymentMethodCard PaymentMethod = "card"
)

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	method := PaymentMethod(strings.ToLower(strings.TrimSpace(value)))
	switch method {
	case PaymentMethodCOD, PaymentMethodCard:
		return method, nil
	default:
		return "", fmt.Errorf("unknown payment method %q", value)
	}
}

func (m PaymentMethod) String() string {
	return string(m)
}
