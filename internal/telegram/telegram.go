// Package telegram announces new scholarships to a Telegram chat.
package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"zonebourse-go/internal/logger"
	"zonebourse-go/internal/model"
	"zonebourse-go/internal/render"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	messageLimit   = 4096
	queueSize      = 100
)

type Sender struct {
	token    string
	chat     string
	threadID *int
	apiBase  string

	client       *http.Client
	queue        chan string
	minInterval  time.Duration
	lastSentTime time.Time

	closeOnce sync.Once
	done      chan struct{}
}

type Option func(*Sender)

func WithAPIBase(base string) Option {
	return func(s *Sender) {
		s.apiBase = strings.TrimRight(base, "/")
	}
}

func WithMinInterval(d time.Duration) Option {
	return func(s *Sender) {
		s.minInterval = d
	}
}

func NewSender(token, chat string, threadID *int, options ...Option) *Sender {
	s := &Sender{
		token:       token,
		chat:        chat,
		threadID:    threadID,
		apiBase:     defaultAPIBase,
		client:      &http.Client{Timeout: 15 * time.Second},
		queue:       make(chan string, queueSize),
		minInterval: 1200 * time.Millisecond,
		done:        make(chan struct{}),
	}
	for _, option := range options {
		option(s)
	}

	go s.worker()
	return s
}

// SendAlert queues an announcement. It never blocks the caller; alerts are
// dropped when the queue is full.
func (s *Sender) SendAlert(bourse model.Bourse) {
	select {
	case s.queue <- formatMessage(bourse):
	default:
		logger.Warn().Str("titre", bourse.Titre).Msg("telegram queue full, alert dropped")
	}
}

// Close stops accepting alerts and waits until queued ones are sent.
func (s *Sender) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	<-s.done
}

func (s *Sender) worker() {
	defer close(s.done)
	for msg := range s.queue {
		s.sendWithRateLimit(msg)
	}
}

func (s *Sender) sendWithRateLimit(text string) {
	log := logger.With("telegram")

	wait := time.Until(s.lastSentTime.Add(s.minInterval))
	if wait > 0 {
		time.Sleep(wait)
	}

	retryAfter, err := s.postMessage(text)
	if err != nil {
		if retryAfter > 0 {
			log.Warn().Dur("retry_after", retryAfter).Msg("rate limit hit")
			time.Sleep(retryAfter)
			if _, retryErr := s.postMessage(text); retryErr != nil {
				log.Error().Err(retryErr).Msg("retry failed")
				return
			}
			s.lastSentTime = time.Now()
			log.Info().Msg("alert sent after retry")
			return
		}

		log.Error().Err(err).Msg("send failed")
		return
	}

	s.lastSentTime = time.Now()
	log.Info().Msg("alert sent")
}

func (s *Sender) postMessage(text string) (time.Duration, error) {
	payload := map[string]any{
		"chat_id":    s.chat,
		"text":       text,
		"parse_mode": "HTML",
	}
	if s.threadID != nil {
		payload["message_thread_id"] = *s.threadID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.token), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var parsed telegramResponse
	_ = json.NewDecoder(resp.Body).Decode(&parsed)

	if resp.StatusCode == http.StatusTooManyRequests && parsed.Parameters.RetryAfter > 0 {
		return time.Duration(parsed.Parameters.RetryAfter) * time.Second, fmt.Errorf("rate limited")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("telegram error: %d %s", resp.StatusCode, parsed.Description)
	}

	return 0, nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

const (
	titleClose = "</b>"
	ellipsis   = "…"
)

// formatMessage builds the HTML announcement. Empty fields are left out.
// Text is escaped one rune at a time against the length budget, so a long
// message is cut between entities and never exceeds messageLimit.
func formatMessage(b model.Bourse) string {
	m := &message{left: messageLimit - utf8.RuneCountInString(titleClose+ellipsis)}
	m.write("🎓 <b>Nouvelle bourse : ")
	m.escape(b.Titre)
	m.sb.WriteString(titleClose)

	fields := []struct{ icon, label, value string }{
		{"🏛", "Université", b.Universite},
		{"🌍", "Pays", b.Pays},
		{"🎯", "Niveau", b.NiveauEtude},
		{"📚", "Domaine", b.DomaineEtude},
		{"💰", "Montant", b.MontantBourse},
		{"⏰", "Date limite", render.FormatDeadline(b.DateLimite)},
		{"📝", "Description", b.Description},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			continue
		}
		m.write(fmt.Sprintf("\n%s %s : ", f.icon, f.label))
		m.escape(f.value)
	}

	if m.full {
		m.sb.WriteString(ellipsis)
	}
	return m.sb.String()
}

// message accumulates text until left runes are used up.
type message struct {
	sb   strings.Builder
	left int
	full bool
}

func (m *message) write(s string) {
	n := utf8.RuneCountInString(s)
	if m.full || n > m.left {
		m.full = true
		return
	}
	m.sb.WriteString(s)
	m.left -= n
}

func (m *message) escape(s string) {
	for _, r := range s {
		if m.full {
			return
		}
		m.write(html.EscapeString(string(r)))
	}
}
