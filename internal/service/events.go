package service

// EventType defines the type of event
type EventType string

const (
	EventSceneReplaced    EventType = "scene_replaced"
	EventNodeSelected     EventType = "node_selected"
	EventEdgeSelected     EventType = "edge_selected"
	EventSelectionCleared EventType = "selection_cleared"
	EventViewChanged      EventType = "view_changed"
	EventSimSettled       EventType = "sim_settled"
	EventSimStopped       EventType = "sim_stopped"
	EventGraphGenerated   EventType = "graph_generated"
	EventGraphSaved       EventType = "graph_saved"
	EventGraphLoaded      EventType = "graph_loaded"
	EventNodeCreated      EventType = "node_created"
	EventNodeUpdated      EventType = "node_updated"
	EventNodeDeleted      EventType = "node_deleted"
	EventEdgeCreated      EventType = "edge_created"
	EventEdgeDeleted      EventType = "edge_deleted"
)

// Event represents an event that occurred in the system. Payloads are
// small id/count maps or pre-marshaled JSON; never live graph records.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events. Subscribe
// before publishing starts; the bus is not safe for concurrent
// subscription.
type EventBus struct {
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}
