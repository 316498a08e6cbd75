package events

// Topic constants for domain events emitted by the salon backend.
const (
	TopicSaleCompleted      = "sale.completed"
	TopicSaleCancelled      = "sale.cancelled"
	TopicInventoryLowStock  = "inventory.low_stock"
	TopicCustomerCreated    = "customer.created"
	TopicAppointmentBooked  = "appointment.booked"
	TopicAppointmentUpdated = "appointment.updated"
	TopicCouponCreated      = "coupon.created"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicSaleCompleted,
		TopicSaleCancelled,
		TopicInventoryLowStock,
		TopicCustomerCreated,
		TopicAppointmentBooked,
		TopicAppointmentUpdated,
		TopicCouponCreated,
	}
}

// IsKnownTopic reports whether topic is one of DefaultTopics.
func IsKnownTopic(topic string) bool {
	for _, t := range DefaultTopics() {
		if t == topic {
			return true
		}
	}
	return false
}
