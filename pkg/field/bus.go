package field

// Topic addresses a bus message.
type Topic string

const errorTopicPrefix = "schemaform.error."

// ErrorTopic is the topic error events for the dotted key are published on.
func ErrorTopic(dottedKey string) Topic {
	return Topic(errorTopicPrefix + dottedKey)
}

// Handler receives a published payload.
type Handler func(payload any)

type subscription struct {
	owner   int
	handler Handler
}

// Bus is a synchronous publish/subscribe bus. Handlers run on the publishing
// goroutine in subscription order, so Publish returns only after every
// subscriber has processed the payload.
type Bus struct {
	subs   map[Topic][]subscription
	topics map[int][]Topic
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[Topic][]subscription),
		topics: make(map[int][]Topic),
	}
}

// Subscribe registers handler for topic on behalf of owner.
func (b *Bus) Subscribe(topic Topic, owner int, handler Handler) {
	if handler == nil {
		return
	}
	b.subs[topic] = append(b.subs[topic], subscription{owner: owner, handler: handler})
	b.topics[owner] = append(b.topics[owner], topic)
}

// Unsubscribe drops every subscription held by owner.
func (b *Bus) Unsubscribe(owner int) {
	for _, topic := range b.topics[owner] {
		subs := b.subs[topic]
		kept := subs[:0:0]
		for _, sub := range subs {
			if sub.owner != owner {
				kept = append(kept, sub)
			}
		}
		if len(kept) == 0 {
			delete(b.subs, topic)
			continue
		}
		b.subs[topic] = kept
	}
	delete(b.topics, owner)
}

// Publish delivers payload to the current subscribers of topic and returns
// how many were called. Subscriptions changed by a handler take effect on the
// next Publish.
func (b *Bus) Publish(topic Topic, payload any) int {
	subs := append([]subscription(nil), b.subs[topic]...)
	for _, sub := range subs {
		sub.handler(payload)
	}
	return len(subs)
}

// Subscribers returns the number of subscriptions on topic.
func (b *Bus) Subscribers(topic Topic) int {
	return len(b.subs[topic])
}
