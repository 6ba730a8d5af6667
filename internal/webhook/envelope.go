package webhook

// Envelope is the top-level webhook payload delivered by the platform.
type Envelope struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups messaging events for one page.
type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging"`
}

// Messaging is a single event: at most one of Message, Read, Delivery, or
// Reaction is set.
type Messaging struct {
	Sender    Party     `json:"sender"`
	Recipient Party     `json:"recipient"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Read      *Read     `json:"read,omitempty"`
	Delivery  *Delivery `json:"delivery,omitempty"`
	Reaction  *Reaction `json:"reaction,omitempty"`
}

// Party identifies a conversation participant.
type Party struct {
	ID string `json:"id"`
}

// Message is an inbound text message. IsEcho marks the page's own outbound
// messages reflected back by the platform.
type Message struct {
	MID    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo,omitempty"`
}

// Read is a read receipt.
type Read struct {
	Watermark int64 `json:"watermark"`
}

// Delivery is a delivery receipt.
type Delivery struct {
	MIDs      []string `json:"mids,omitempty"`
	Watermark int64    `json:"watermark"`
}

// Reaction is an emoji reaction to a prior message.
type Reaction struct {
	MID    string `json:"mid"`
	Action string `json:"action"`
	Emoji  string `json:"emoji,omitempty"`
}
