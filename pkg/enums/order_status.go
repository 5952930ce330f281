package enums

import (
	"fmt"
	"strings"
)

// OrderStatus tracks an order through fulfilment.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var orderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:    {},
	OrderStatusProcessing: {},
	OrderStatusShipped:    {},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := orderStatuses[status]; !ok {
		return "", fmt.Errorf("unknown order status %q", value)
	}
	return status, nil
}

func (s OrderStatus) String() string {
	return string(s)
}

// Cancellable reports whether an order in this status may still be
// cancelled by its owner.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}
