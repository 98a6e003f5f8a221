// Package flash holds transient user-facing notifications between requests.
package flash

import "time"

// TTL is how long a message stays visible after it was shown.
const TTL = 5 * time.Second

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

type Message struct {
	Text    string    `json:"text"`
	Kind    Kind      `json:"kind"`
	ShownAt time.Time `json:"shown_at"`
}

// ExpiresAt is the instant the message disappears.
func (m Message) ExpiresAt() time.Time {
	return m.ShownAt.Add(TTL)
}

// Visible is a message ready to render, with the lifetime it has left.
type Visible struct {
	Text      string
	Kind      Kind
	Remaining time.Duration
}

// Board collects messages for one session. The zero value is ready to use.
type Board struct {
	Messages []Message `json:"messages,omitempty"`

	now func() time.Time
}

func (b *Board) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}

// SetClock replaces the time source, mostly for boards decoded from storage.
func (b *Board) SetClock(now func() time.Time) {
	b.now = now
}

func (b *Board) Show(text string, kind Kind) {
	b.Messages = append(b.Messages, Message{Text: text, Kind: kind, ShownAt: b.clock()})
}

func (b *Board) Success(text string) {
	b.Show(text, Success)
}

func (b *Board) Error(text string) {
	b.Show(text, Error)
}

// Visible returns the messages still on screen at now without consuming them.
func (b *Board) Visible(now time.Time) []Visible {
	out := make([]Visible, 0, len(b.Messages))
	for _, m := range b.Messages {
		remaining := m.ExpiresAt().Sub(now)
		if remaining <= 0 {
			continue
		}
		out = append(out, Visible{Text: m.Text, Kind: m.Kind, Remaining: remaining})
	}
	return out
}

// Drain returns the visible messages and empties the board.
func (b *Board) Drain(now time.Time) []Visible {
	out := b.Visible(now)
	b.Messages = nil
	return out
}

func (b *Board) Len() int {
	return len(b.Messages)
}
