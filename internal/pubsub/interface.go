package pubsub

// PubSubClient decouples game processing from the message broker. Topics are
// named after the EventType they carry.
type PubSubClient interface {
	SendMessage(topic EventType, data any) error
	ProcessMessage(data []byte, returnValue any) error
}
