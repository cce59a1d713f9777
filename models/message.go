package models

import (
	"encoding/json"
	"time"
)

type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	FromName  string    `json:"fromName,omitempty"`
	To        string    `json:"to"`
	ToName    string    `json:"toName,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*m = Message{}
	m.ID = firstString(fields, "_id", "id")
	m.From, m.FromName = decodeRef(fields["from"])
	m.To, m.ToName = decodeRef(fields["to"])
	m.Message = firstString(fields, "message", "text", "content")

	for _, key := range []string{"timestamp", "createdAt"} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var ts time.Time
		if err := json.Unmarshal(raw, &ts); err == nil {
			m.Timestamp = ts
			break
		}
		if ms, ok := number(raw); ok {
			m.Timestamp = time.UnixMilli(int64(ms)).UTC()
			break
		}
	}
	return nil
}

type SendMessageRequest struct {
	To      string `json:"to" form:"to" validate:"required"`
	Message string `json:"message" form:"message" validate:"required"`
}
