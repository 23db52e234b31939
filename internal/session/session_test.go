package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chemtutor/internal/middleware"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"normal", ModeNormal, false},
		{" Accessibility ", ModeAccessibility, false},
		{"TEACHER", ModeTeacher, false},
		{"blind", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_GetOrCreate(t *testing.T) {
	st := NewStore(time.Hour)

	s := st.GetOrCreate("")
	require.NotEmpty(t, s.ID)
	assert.Equal(t, ModeNormal, s.Mode)
	assert.Equal(t, TabChat, s.Tab)

	again := st.GetOrCreate(s.ID)
	assert.Same(t, s, again)

	other := st.GetOrCreate("forged-id")
	assert.NotEqual(t, "forged-id", other.ID)
	assert.Equal(t, 2, st.Count())
}

func TestStore_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	st := NewStore(time.Minute)
	st.now = func() time.Time { return now }

	s := st.GetOrCreate("")
	now = now.Add(30 * time.Second)
	_, err := st.Get(s.ID)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = st.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	fresh := st.GetOrCreate(s.ID)
	assert.NotEqual(t, s.ID, fresh.ID)

	assert.Equal(t, 1, st.Sweep())
	assert.Equal(t, 1, st.Count())
}

func TestSession_History(t *testing.T) {
	s := newSession("id", time.Now())
	s.Append("What is benzene?", "බෙන්සීන් යනු...")

	require.Len(t, s.History, 2)
	assert.Equal(t, Turn{Role: RoleUser, Content: "What is benzene?"}, s.History[0])
	assert.Equal(t, RoleAssistant, s.History[1].Role)
	assert.Equal(t, 2, s.View().Turns)

	s.ClearHistory()
	assert.Empty(t, s.History)
}

func TestMiddleware(t *testing.T) {
	st := NewStore(time.Hour)
	var seen *Session
	var logged string

	h := Middleware(st)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		seen, ok = FromContext(r.Context())
		require.True(t, ok)
		logged = middleware.GetSessionID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))

	id := rec.Header().Get(Header)
	require.NotEmpty(t, id)
	assert.Equal(t, id, seen.ID)
	assert.Equal(t, id, logged)

	req := httptest.NewRequest(http.MethodGet, "/session", nil)
	req.Header.Set(Header, id)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(Header))
	assert.Equal(t, 1, st.Count())
}

func TestParseCommandAndApply(t *testing.T) {
	tests := []struct {
		transcript string
		wantTab    Tab
		wantMode   Mode
		wantReply  string
	}{
		{"open the chat please", TabChat, ModeAccessibility, ReplyChat},
		{"Quiz", TabQuizzes, ModeAccessibility, ReplyQuizzes},
		{"I want to practice", TabQuizzes, ModeAccessibility, ReplyQuizzes},
		{"molecules", TabMolecules, ModeAccessibility, ReplyMolecules},
		{"visualizer", TabMolecules, ModeAccessibility, ReplyMolecules},
		{"help", TabLabs, ModeAccessibility, ReplyHelp},
		{"exit accessibility mode", TabLabs, ModeNormal, ReplyExit},
		{"close", TabLabs, ModeNormal, ReplyExit},
		{"banana", TabLabs, ModeAccessibility, ReplyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			s := newSession("id", time.Now())
			s.Mode = ModeAccessibility
			s.Tab = TabLabs

			reply := s.Apply(ParseCommand(tt.transcript))

			assert.Equal(t, tt.wantReply, reply)
			assert.Equal(t, tt.wantTab, s.Tab)
			assert.Equal(t, tt.wantMode, s.Mode)
		})
	}
}
