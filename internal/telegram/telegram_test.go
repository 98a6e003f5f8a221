package telegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonebourse-go/internal/model"
)

func TestFormatMessage(t *testing.T) {
	msg := formatMessage(model.Bourse{
		Titre:         "Bourse <Eiffel>",
		Universite:    "Sorbonne",
		Pays:          "France",
		MontantBourse: "1 181 €/mois",
		DateLimite:    "2025-01-10",
	})

	assert.True(t, strings.HasPrefix(msg, "🎓 <b>Nouvelle bourse : Bourse &lt;Eiffel&gt;</b>"))
	assert.Contains(t, msg, "🏛 Université : Sorbonne\n")
	assert.Contains(t, msg, "🌍 Pays : France\n")
	assert.Contains(t, msg, "⏰ Date limite : 10 janvier 2025")
	assert.NotContains(t, msg, "Niveau")
	assert.NotContains(t, msg, "Description")
	assert.False(t, strings.HasSuffix(msg, "\n"))
}

func TestFormatMessageStaysWithinLimitWithoutBreakingEntities(t *testing.T) {
	msg := formatMessage(model.Bourse{
		Titre:       "Bourse R&D",
		Pays:        "France",
		Description: strings.Repeat("R&D <lab> ", 1200),
	})

	assert.LessOrEqual(t, utf8.RuneCountInString(msg), messageLimit)
	assert.True(t, strings.HasSuffix(msg, "…"))
	assert.Contains(t, msg, "<b>Nouvelle bourse : Bourse R&amp;D</b>")
	assert.Equal(t, strings.Count(msg, "&"), strings.Count(msg, "&amp;")+strings.Count(msg, "&lt;")+strings.Count(msg, "&gt;"))
	assert.NotContains(t, msg, "<lab>")
}

func TestFormatMessageLongTitleKeepsClosingTag(t *testing.T) {
	msg := formatMessage(model.Bourse{Titre: strings.Repeat("&", 5000), Pays: "France"})

	assert.LessOrEqual(t, utf8.RuneCountInString(msg), messageLimit)
	assert.True(t, strings.HasSuffix(msg, "</b>…"))
	assert.NotContains(t, msg, "Pays")
	body := strings.TrimSuffix(strings.TrimPrefix(msg, "🎓 <b>Nouvelle bourse : "), "</b>…")
	assert.Equal(t, "", strings.ReplaceAll(body, "&amp;", ""))
}

func TestFormatMessageShortHasNoEllipsis(t *testing.T) {
	msg := formatMessage(model.Bourse{Titre: "DAAD", Description: "Court"})
	assert.Equal(t, "🎓 <b>Nouvelle bourse : DAAD</b>\n📝 Description : Court", msg)
}

func TestSenderPostsQueuedAlerts(t *testing.T) {
	var (
		mu       sync.Mutex
		payloads []map[string]any
		paths    []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		_ = json.NewDecoder(r.Body).Decode(&p)
		mu.Lock()
		payloads = append(payloads, p)
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	thread := 42
	s := NewSender("tok", "-100", &thread, WithAPIBase(srv.URL), WithMinInterval(0))
	s.SendAlert(model.Bourse{Titre: "DAAD"})
	s.SendAlert(model.Bourse{Titre: "Chevening"})
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, payloads, 2)
	assert.Equal(t, "/bottok/sendMessage", paths[0])
	assert.Equal(t, "-100", payloads[0]["chat_id"])
	assert.Equal(t, "HTML", payloads[0]["parse_mode"])
	assert.EqualValues(t, 42, payloads[0]["message_thread_id"])
	assert.Contains(t, payloads[1]["text"], "Chevening")
}

func TestSenderRetriesAfterRateLimit(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"parameters":{"retry_after":1}}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	s := NewSender("tok", "chat", nil, WithAPIBase(srv.URL), WithMinInterval(0))
	s.SendAlert(model.Bourse{Titre: "DAAD"})
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}
