package periodic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chemtutor/internal/session"
)

type MockSynthesizer struct{ mock.Mock }

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func newMux(t *testing.T, s Synthesizer) *http.ServeMux {
	table, err := Load("")
	require.NoError(t, err)
	h := NewHandler(table, s)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /elements", h.List)
	mux.HandleFunc("GET /elements/{symbol}", h.Get)
	return mux
}

func TestHandler_List(t *testing.T) {
	mux := newMux(t, nil)

	tests := []struct {
		name       string
		url        string
		wantStatus int
		wantCount  int
	}{
		{"All", "/elements", http.StatusOK, -1},
		{"Categories", "/elements?category=halogen,noble%20gas&max=18", http.StatusOK, 5},
		{"Search", "/elements?q=na", http.StatusOK, 1},
		{"Bad Min", "/elements?min=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var body struct {
				Data struct {
					Elements []Element         `json:"elements"`
					Colors   map[string]string `json:"colors"`
					Count    int               `json:"count"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Len(t, body.Data.Colors, 11)
			if tt.wantCount >= 0 {
				assert.Equal(t, tt.wantCount, body.Data.Count)
			}
		})
	}
}

func TestHandler_Get(t *testing.T) {
	s := new(MockSynthesizer)
	s.On("Synthesize", mock.Anything, mock.MatchedBy(func(text string) bool {
		return len(text) > 0 && text[:6] == "Sodium"
	})).Return([]byte("mp3"), nil)
	mux := newMux(t, s)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/elements/na", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"description":"Sodium (Na), atomic number 11.`)
	assert.NotContains(t, w.Body.String(), `"audio"`)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/elements/Na?speak=true", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), base64.StdEncoding.EncodeToString([]byte("mp3")))

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/elements/Xx", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_GetSpeaksInAccessibilityMode(t *testing.T) {
	s := new(MockSynthesizer)
	s.On("Synthesize", mock.Anything, mock.Anything).Return([]byte("mp3"), nil).Once()
	mux := newMux(t, s)

	sess := session.NewStore(time.Hour).GetOrCreate("")
	sess.Mode = session.ModeAccessibility
	req := httptest.NewRequest(http.MethodGet, "/elements/O", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req.WithContext(session.NewContext(req.Context(), sess)))

	require.Equal(t, http.StatusOK, w.Code)
	s.AssertExpectations(t)
}
