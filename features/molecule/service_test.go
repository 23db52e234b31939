package molecule

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chemtutor/internal/adapter/gemini"
	mol "chemtutor/internal/molecule"
	"chemtutor/internal/session"
)

type MockGenerator struct{ mock.Mock }

func (m *MockGenerator) Generate(ctx context.Context, req gemini.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type MockSynthesizer struct{ mock.Mock }

func (m *MockSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func isNameRequest(req gemini.Request) bool {
	return strings.Contains(req.Prompt, "Convert this chemical name")
}

func isDescribeRequest(req gemini.Request) bool {
	return strings.Contains(req.Prompt, "blind students")
}

func TestService_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		genErr  error
		want    string
		wantErr error
	}{
		{"Tagged", "SMILES: CCO", nil, "CCO", nil},
		{"Bare Token", "c1ccccc1\n", nil, "c1ccccc1", nil},
		{"Invalid Token", "SMILES: C((", nil, "", mol.ErrInvalidSMILES},
		{"Prose", "I do not know this compound.", nil, "", mol.ErrInvalidSMILES},
		{"Upstream", "", errors.New("quota"), "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := new(MockGenerator)
			g.On("Generate", mock.Anything, mock.MatchedBy(isNameRequest)).Return(tt.reply, tt.genErr)

			got, err := NewService(g, nil, "https://d").Resolve(context.Background(), "ethanol")
			switch {
			case tt.genErr != nil:
				assert.ErrorIs(t, err, tt.genErr)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestService_Lookup(t *testing.T) {
	g, s := new(MockGenerator), new(MockSynthesizer)
	g.On("Generate", mock.Anything, mock.MatchedBy(isNameRequest)).Return("SMILES: O", nil)
	g.On("Generate", mock.Anything, mock.MatchedBy(isDescribeRequest)).Return("  නැමුණු අණුවකි  ", nil)
	s.On("Synthesize", mock.Anything, "නැමුණු අණුවකි").Return([]byte("mp3"), nil)

	res, err := NewService(g, s, "https://d/structure").Lookup(context.Background(), "ජලය", true)

	require.NoError(t, err)
	assert.Equal(t, "O", res.SMILES)
	assert.Equal(t, "https://d/structure/O/image", res.ImageURL)
	assert.Equal(t, "නැමුණු අණුවකි", res.Description)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("mp3")), res.Audio)
}

func TestHandler_Visualize(t *testing.T) {
	g := new(MockGenerator)
	g.On("Generate", mock.Anything, mock.MatchedBy(isNameRequest)).Return("SMILES: not-valid", nil)
	h := NewHandler(NewService(g, nil, "https://d"))
	sess := session.NewStore(time.Hour).GetOrCreate("")

	req := httptest.NewRequest(http.MethodPost, "/molecules", strings.NewReader(`{"name":"glorp"}`))
	w := httptest.NewRecorder()
	h.Visualize(w, req.WithContext(session.NewContext(req.Context(), sess)))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "try another name")
}

func TestHandler_VisualizeSuccess(t *testing.T) {
	g := new(MockGenerator)
	g.On("Generate", mock.Anything, mock.MatchedBy(isNameRequest)).Return("SMILES: C", nil)
	g.On("Generate", mock.Anything, mock.MatchedBy(isDescribeRequest)).Return("tetrahedral", nil)
	h := NewHandler(NewService(g, nil, "https://d"))
	sess := session.NewStore(time.Hour).GetOrCreate("")

	req := httptest.NewRequest(http.MethodPost, "/molecules", strings.NewReader(`{"name":"methane"}`))
	w := httptest.NewRecorder()
	h.Visualize(w, req.WithContext(session.NewContext(req.Context(), sess)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"smiles":"C"`)
	assert.NotContains(t, w.Body.String(), `"audio"`)
	assert.Equal(t, session.TabMolecules, sess.Tab)
}
