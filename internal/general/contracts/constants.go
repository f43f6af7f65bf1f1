package contracts

// Exchanges
const (
	ExchangeOrderTopic    = "order_topic"
	ExchangeDispatchTopic = "dispatch_topic"
)

// Queues
const (
	QueueOrderDispatch  = "order_dispatch"
	QueueDispatchEvents = "dispatch_events"
)

// Routing patterns
const (
	RouteOrderCreated     = "order.created"
	RouteDispatchPrefix   = "dispatch."
	RouteDispatchAssigned = "dispatch.assigned"
	RouteDispatchFailed   = "dispatch.failed"
)
