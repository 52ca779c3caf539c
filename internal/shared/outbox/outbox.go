package outbox

const (
	StatusPending = "pending"
	StatusSent    = "sent"
)

// Message is an outbox row persisted inside the same DB transaction as the
// state change it announces. The relay worker reads pending rows and
// publishes them to the message bus.
type Message struct {
	ID           string
	EventType    string
	PartitionKey string
	Payload      []byte
	Status       string // pending, sent
}
