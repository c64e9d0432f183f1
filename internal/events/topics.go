package events

// Topic constants for domain events emitted by the shop.
const (
	TopicOrderCreated          = "order.created"
	TopicOrderStatusChanged    = "order.status_changed"
	TopicCustomerRegistered    = "b2b.customer_registered"
	TopicCustomerStatusChanged = "b2b.customer_status_changed"
	TopicPriceRulesBulkApplied = "b2b.price_rules_bulk_applied"
)
