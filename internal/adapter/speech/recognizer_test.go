package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

type MockRecognizer struct{ mock.Mock }

func (m *MockRecognizer) Recognize(ctx context.Context, audio Audio) (string, error) {
	args := m.Called(ctx, audio)
	return args.String(0), args.Error(1)
}

func TestTranscriber_AllAttemptsTimeOut(t *testing.T) {
	rec := new(MockRecognizer)
	rec.On("Recognize", mock.Anything, mock.Anything).Return("", context.DeadlineExceeded)

	tr := NewTranscriber(rec, 2, time.Second)
	text := tr.Transcribe(context.Background(), Audio{Data: []byte("x")})

	assert.Equal(t, "", text)
	rec.AssertNumberOfCalls(t, "Recognize", 3)
}

func TestTranscriber_RecoversAfterTimeout(t *testing.T) {
	rec := new(MockRecognizer)
	rec.On("Recognize", mock.Anything, mock.Anything).Return("", context.DeadlineExceeded).Once()
	rec.On("Recognize", mock.Anything, mock.Anything).Return("බෙන්සීන් යනු කුමක්ද", nil).Once()

	tr := NewTranscriber(rec, 2, time.Second)

	assert.Equal(t, "බෙන්සීන් යනු කුමක්ද", tr.Transcribe(context.Background(), Audio{}))
	rec.AssertNumberOfCalls(t, "Recognize", 2)
}

func TestTranscriber_RequestErrorGivesUp(t *testing.T) {
	rec := new(MockRecognizer)
	rec.On("Recognize", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded")).Once()

	tr := NewTranscriber(rec, 2, time.Second)

	assert.Equal(t, "", tr.Transcribe(context.Background(), Audio{}))
	rec.AssertNumberOfCalls(t, "Recognize", 1)
}

func TestTranscriber_UnintelligibleIsNotRetried(t *testing.T) {
	rec := new(MockRecognizer)
	rec.On("Recognize", mock.Anything, mock.Anything).Return("", nil).Once()

	tr := NewTranscriber(rec, 2, time.Second)

	assert.Equal(t, "", tr.Transcribe(context.Background(), Audio{}))
	rec.AssertNumberOfCalls(t, "Recognize", 1)
}

func TestTranscriber_SlowRecognizerHitsAttemptTimeout(t *testing.T) {
	rec := new(MockRecognizer)
	rec.On("Recognize", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		<-args.Get(0).(context.Context).Done()
	}).Return("", context.DeadlineExceeded)

	tr := NewTranscriber(rec, 1, 10*time.Millisecond)

	assert.Equal(t, "", tr.Transcribe(context.Background(), Audio{}))
	rec.AssertNumberOfCalls(t, "Recognize", 2)
}

func TestCloudRecognizer_Recognize(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"alternatives":[{"transcript":"hello","confidence":0.9}]},{"alternatives":[{"transcript":"world"}]}]}`))
	}))
	defer ts.Close()

	rec, err := NewCloudRecognizer(context.Background(), "si-LK", option.WithEndpoint(ts.URL+"/"), option.WithAPIKey("k"))
	require.NoError(t, err)

	text, err := rec.Recognize(context.Background(), Audio{Data: []byte("pcm"), Encoding: "LINEAR16"})
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestEncodingForContentType(t *testing.T) {
	tests := map[string]string{
		"audio/wav":              "LINEAR16",
		"audio/webm;codecs=opus": "WEBM_OPUS",
		"audio/flac":             "FLAC",
		"audio/mpeg":             "MP3",
		"text/plain":             "",
	}
	for ct, want := range tests {
		assert.Equal(t, want, EncodingForContentType(ct), ct)
	}
}
