package services

// Realtime event names pushed to per-user channels.
const (
	EventNewMessage             = "newMessage"
	EventMessageUpdated         = "messageUpdated"
	EventMessageDeleted         = "messageDeleted"
	EventMessageReaction        = "messageReaction"
	EventMessageReactionRemoved = "messageReactionRemoved"
)

// Broadcaster pushes an event to every live connection a user has
// announced. Delivery is best effort: no queue, no retry, silent drop when
// the user has no connections. Durable state always lives in the message
// store, so services receive this as an injected dependency and can run
// without a live connection layer.
type Broadcaster interface {
	EmitToUser(userID, event string, payload interface{})
}

// NopBroadcaster drops every event. Used in tests and as a default.
type NopBroadcaster struct{}

// EmitToUser implements Broadcaster.
func (NopBroadcaster) EmitToUser(userID, event string, payload interface{}) {}
