package events

// Topic constants for domain events emitted by the core.
const (
	TopicSaleCompleted         = "sale.completed"
	TopicSaleRefunded          = "sale.refunded"
	TopicSalePartiallyRefunded = "sale.partially_refunded"
	TopicSaleCancelled         = "sale.cancelled"
	TopicStockRestocked        = "stock.restocked"
	TopicStockLow              = "stock.low"
	TopicStockOut              = "stock.out"
)

// DefaultTopics returns the canonical list of topics the core emits.
func DefaultTopics() []string {
	return []string{
		TopicSaleCompleted,
		TopicSaleRefunded,
		TopicSalePartiallyRefunded,
		TopicSaleCancelled,
		TopicStockRestocked,
		TopicStockLow,
		TopicStockOut,
	}
}
