package whatsapp

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrUnrecognisedPayload is returned when no known payload shape yields both a
// sender and a text.
var ErrUnrecognisedPayload = errors.New("invalid message format")

// Shape identifies which wire format an inbound payload matched.
type Shape string

const (
	// ShapeNative is the Evolution API shape: key.remoteJid + message.conversation.
	ShapeNative Shape = "native"
	// ShapeGeneric is a flat {"from", "text"} object, used by relays such as n8n.
	ShapeGeneric Shape = "generic"
	// ShapeCloudAPI is the Meta Cloud API webhook shape: entry[].changes[].value.messages[].
	ShapeCloudAPI Shape = "cloud_api"
)

// InboundMessage is the normalised result of parsing one webhook payload.
type InboundMessage struct {
	SenderID string
	Text     string
	Shape    Shape
	// FromMe is set when the provider echoes a message this instance sent.
	FromMe bool
}

// fields is a JSON object decoded one level deep. Each accessor decodes its
// own field, so a badly typed sibling never hides the fields that are usable.
type fields map[string]json.RawMessage

func objectOf(raw json.RawMessage) (fields, bool) {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return nil, false
	}
	return f, true
}

func (f fields) str(key string) string {
	var s string
	if err := json.Unmarshal(f[key], &s); err != nil {
		return ""
	}
	return s
}

func (f fields) flag(key string) bool {
	var b bool
	_ = json.Unmarshal(f[key], &b)
	return b
}

func (f fields) obj(key string) (fields, bool) {
	raw, ok := f[key]
	if !ok {
		return nil, false
	}
	return objectOf(raw)
}

// firstOf returns the first element of the array under key when it is an object.
func (f fields) firstOf(key string) (fields, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(f[key], &items); err != nil || len(items) == 0 {
		return nil, false
	}
	return objectOf(items[0])
}

// textOf accepts both {"body": "..."} and a bare string.
func (f fields) textOf(key string) string {
	if s := f.str(key); s != "" {
		return s
	}
	if inner, ok := f.obj(key); ok {
		return inner.str("body")
	}
	return ""
}

// unwrap removes {"body": {...}} and Evolution's {"event": ..., "data": {...}}
// wrappers, innermost last.
func unwrap(raw json.RawMessage) json.RawMessage {
	for depth := 0; depth < 4; depth++ {
		f, ok := objectOf(raw)
		if !ok {
			return raw
		}
		if _, ok := f.obj("body"); ok {
			raw = f["body"]
			continue
		}
		if _, hasEvent := f["event"]; hasEvent {
			if _, ok := f.obj("data"); ok {
				raw = f["data"]
				continue
			}
		}
		return raw
	}
	return raw
}

// cloudMessage walks entry[0].changes[0].value.messages[0].
func cloudMessage(f fields) (fields, bool) {
	entry, ok := f.firstOf("entry")
	if !ok {
		return nil, false
	}
	change, ok := entry.firstOf("changes")
	if !ok {
		return nil, false
	}
	value, ok := change.obj("value")
	if !ok {
		return nil, false
	}
	return value.firstOf("messages")
}

type senderSource struct {
	shape  Shape
	sender func(fields) string
}

// senderSources are tried in order; the first non-empty normalised sender wins
// and names the payload's shape.
var senderSources = []senderSource{
	{ShapeNative, func(f fields) string {
		key, ok := f.obj("key")
		if !ok {
			return ""
		}
		local, _, _ := strings.Cut(key.str("remoteJid"), "@")
		return local
	}},
	{ShapeGeneric, func(f fields) string { return f.str("from") }},
	{ShapeCloudAPI, func(f fields) string {
		if msg, ok := cloudMessage(f); ok {
			return msg.str("from")
		}
		return ""
	}},
}

// textSources are tried in order independently of where the sender came from.
var textSources = []func(fields) string{
	func(f fields) string {
		msg, ok := f.obj("message")
		if !ok {
			return ""
		}
		if s := msg.str("conversation"); s != "" {
			return s
		}
		if s := msg.textOf("text"); s != "" {
			return s
		}
		if s := msg.str("body"); s != "" {
			return s
		}
		if ext, ok := msg.obj("extendedTextMessage"); ok {
			return ext.str("text")
		}
		return ""
	},
	func(f fields) string { return f.textOf("text") },
	func(f fields) string {
		if msg, ok := cloudMessage(f); ok {
			return msg.textOf("text")
		}
		return ""
	},
}

// ParseInbound extracts the sender and text from a webhook body. Wrapper objects
// are removed first. The sender and the text are looked up separately, so a
// native key may be paired with a flat text and the other way round. Malformed
// JSON is reported as ErrUnrecognisedPayload.
func ParseInbound(body []byte) (InboundMessage, error) {
	f, ok := objectOf(unwrap(json.RawMessage(body)))
	if !ok {
		return InboundMessage{}, ErrUnrecognisedPayload
	}

	var msg InboundMessage
	for _, src := range senderSources {
		if id := NormaliseSender(src.sender(f)); id != "" {
			msg.SenderID, msg.Shape = id, src.shape
			break
		}
	}
	for _, text := range textSources {
		if msg.Text = text(f); msg.Text != "" {
			break
		}
	}
	if msg.SenderID == "" || msg.Text == "" {
		return InboundMessage{}, ErrUnrecognisedPayload
	}

	if msg.Shape == ShapeNative {
		key, _ := f.obj("key")
		msg.FromMe = key.flag("fromMe")
	}
	return msg, nil
}

var senderReplacer = strings.NewReplacer("+", "", "-", "", "(", "", ")", "", " ", "")

// NormaliseSender strips the separator characters + - ( ) and space.
func NormaliseSender(sender string) string {
	return senderReplacer.Replace(sender)
}
