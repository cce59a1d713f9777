package messaging

import (
	"sort"
	"time"

	"storefront-service/models"
)

// Counterpart is someone the user has exchanged messages with.
type Counterpart struct {
	ID          string
	Name        string
	LastMessage string
	LastAt      time.Time
}

func (c Counterpart) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// Counterparts derives the distinct other parties in msgs, most recent
// conversation first.
func Counterparts(msgs []models.Message, me string) []Counterpart {
	byID := map[string]*Counterpart{}
	for _, m := range msgs {
		var id, name string
		switch me {
		case m.From:
			id, name = m.To, m.ToName
		case m.To:
			id, name = m.From, m.FromName
		default:
			continue
		}
		if id == "" || id == me {
			continue
		}
		cp, ok := byID[id]
		if !ok {
			cp = &Counterpart{ID: id}
			byID[id] = cp
		}
		if name != "" {
			cp.Name = name
		}
		if !m.Timestamp.Before(cp.LastAt) {
			cp.LastAt = m.Timestamp
			cp.LastMessage = m.Message
		}
	}

	out := make([]Counterpart, 0, len(byID))
	for _, cp := range byID {
		out = append(out, *cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastAt.Equal(out[j].LastAt) {
			return out[i].LastAt.After(out[j].LastAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Conversation returns the messages between me and other, oldest first.
func Conversation(msgs []models.Message, me, other string) []models.Message {
	out := []models.Message{}
	if other == "" {
		return out
	}
	for _, m := range msgs {
		if (m.From == me && m.To == other) || (m.From == other && m.To == me) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
