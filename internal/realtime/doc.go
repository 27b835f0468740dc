// Package realtime fans admitted realtime alerts out to connected sessions.
//
// A Hub owns the set of live subscriptions. Each subscription carries the
// subscriber's last known location, preferred areas and notification
// settings; Broadcast evaluates relevance per subscriber and queues a Toast
// without blocking. WebSocket connections are adapted to subscriptions by
// Serve, and the Dispatcher is the realtime consumer's loader.
package realtime
