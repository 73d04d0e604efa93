package eventloop

// EventHandler processes an event.
type EventHandler func(event any)
