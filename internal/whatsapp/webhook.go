package whatsapp

import "github.com/hamed0406/staffbot/internal/domain"

// WebhookPayload is the subset of the Cloud API notification we read.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}

// Inbound is the first message of a notification, flattened.
type Inbound struct {
	MessageID string
	Phone     string
	Name      string
	Text      string
}

const defaultName = "Сотрудник"

// FirstMessage extracts entry[0].changes[0].value.messages[0]. ok is false
// when there is no message or no usable sender phone (status callbacks,
// malformed bodies).
func (p *WebhookPayload) FirstMessage() (Inbound, bool) {
	if p == nil || len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return Inbound{}, false
	}
	v := p.Entry[0].Changes[0].Value
	if len(v.Messages) == 0 {
		return Inbound{}, false
	}
	msg := v.Messages[0]
	in := Inbound{
		MessageID: msg.ID,
		Phone:     domain.NormalizePhone(msg.From),
		Name:      defaultName,
	}
	if in.Phone == "" {
		return Inbound{}, false
	}
	if msg.Text != nil {
		in.Text = msg.Text.Body
	}
	if len(v.Contacts) > 0 && v.Contacts[0].Profile.Name != "" {
		in.Name = v.Contacts[0].Profile.Name
	}
	return in, true
}

// NewTextPayload builds a minimal inbound notification, used by the CLI and tests.
func NewTextPayload(from, name, body string) WebhookPayload {
	msg := Message{From: from, Type: "text"}
	msg.Text = &struct {
		Body string `json:"body"`
	}{Body: body}
	c := Contact{WaID: from}
	c.Profile.Name = name
	return WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []Entry{{
			Changes: []Change{{
				Field: "messages",
				Value: Value{
					MessagingProduct: "whatsapp",
					Contacts:         []Contact{c},
					Messages:         []Message{msg},
				},
			}},
		}},
	}
}
