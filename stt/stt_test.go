package stt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mrsingh-rishi/voice-bridge/audio"
	"github.com/mrsingh-rishi/voice-bridge/audio/audiotest"
	"github.com/mrsingh-rishi/voice-bridge/model"
)

type fakeRecognizer struct {
	resp *speechpb.RecognizeResponse
	err  error
	got  *speechpb.RecognizeRequest
}

func (f *fakeRecognizer) Recognize(_ context.Context, req *speechpb.RecognizeRequest, _ ...gax.CallOption) (*speechpb.RecognizeResponse, error) {
	f.got = req
	return f.resp, f.err
}

func canonicalBuffer(t *testing.T, n int) model.AudioBuffer {
	t.Helper()
	buf, err := audio.Normalize(audiotest.PCM(n, 440, 16000), model.ContainerPCM, audio.DefaultMinDuration)
	require.NoError(t, err)
	return buf
}

func TestGoogleTranscribe(t *testing.T) {
	fake := &fakeRecognizer{resp: &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "turn on"}}},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "the lights"}}},
		},
	}}
	g := newGoogleClient(fake, GoogleConfig{})
	buf := canonicalBuffer(t, 16000)

	res, err := g.Transcribe(context.Background(), buf)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "turn on the lights", res.Text)

	cfg := fake.got.GetConfig()
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, cfg.GetEncoding())
	assert.Equal(t, int32(16000), cfg.GetSampleRateHertz())
	assert.Equal(t, "en-US", cfg.GetLanguageCode())
	assert.Equal(t, buf.Data[44:], fake.got.GetAudio().GetContent())
}

func TestGoogleTranscribeFailures(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeRecognizer
		want model.TranscriptionFailure
	}{
		{"no results", &fakeRecognizer{resp: &speechpb.RecognizeResponse{}}, model.FailureUnintelligible},
		{"unavailable", &fakeRecognizer{err: status.Error(codes.Unavailable, "down")}, model.FailureProviderUnavailable},
		{"unauthenticated", &fakeRecognizer{err: status.Error(codes.Unauthenticated, "bad key")}, model.FailureProviderUnavailable},
		{"deadline", &fakeRecognizer{err: context.DeadlineExceeded}, model.FailureProviderUnavailable},
		{"invalid argument", &fakeRecognizer{err: status.Error(codes.InvalidArgument, "bad audio")}, model.FailureProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newGoogleClient(tt.fake, GoogleConfig{})
			res, err := g.Transcribe(context.Background(), canonicalBuffer(t, 16000))
			require.NoError(t, err)
			assert.False(t, res.OK())
			assert.Equal(t, tt.want, res.Failure)
		})
	}
}

func TestGoogleCalibrate(t *testing.T) {
	buf := canonicalBuffer(t, 32000)

	off := newGoogleClient(&fakeRecognizer{}, GoogleConfig{})
	same, err := Calibrate(context.Background(), off, buf)
	require.NoError(t, err)
	assert.Equal(t, buf, same)

	on := newGoogleClient(&fakeRecognizer{}, GoogleConfig{Noise: NoiseConfig{Enabled: true}})
	gated, err := Calibrate(context.Background(), on, buf)
	require.NoError(t, err)
	assert.Len(t, gated.Data, len(buf.Data))
	assert.Equal(t, model.CanonicalWAV, gated.Format)
	assert.Empty(t, gated.Path)

	upload := model.AudioBuffer{Data: []byte("ID3..."), Format: model.Format{Container: model.ContainerMP3}}
	untouched, err := Calibrate(context.Background(), on, upload)
	require.NoError(t, err)
	assert.Equal(t, upload, untouched)
}

func TestCalibrateNoopForPlainTranscriber(t *testing.T) {
	w, err := NewWhisperClient(WhisperConfig{APIKey: "k"})
	require.NoError(t, err)

	buf := canonicalBuffer(t, 16000)
	got, err := Calibrate(context.Background(), w, buf)
	require.NoError(t, err)
	assert.Equal(t, buf, got)
}

func newWhisperServer(t *testing.T, status int, body string) (*httptest.Server, *[]byte) {
	t.Helper()
	var uploaded []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/transcriptions"))
		file, _, err := r.FormFile("file")
		if assert.NoError(t, err) {
			uploaded, _ = io.ReadAll(file)
			file.Close()
		}
		assert.Equal(t, "en", r.FormValue("language"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &uploaded
}

func TestWhisperTranscribeFromSpooledFile(t *testing.T) {
	srv, uploaded := newWhisperServer(t, http.StatusOK, `{"text":" hello there "}`)

	w, err := NewWhisperClient(WhisperConfig{APIKey: "k", BaseURL: srv.URL + "/v1", LanguageCode: "en-US"})
	require.NoError(t, err)

	buf := canonicalBuffer(t, 16000)
	tmp, err := audio.Spool(t.TempDir(), buf)
	require.NoError(t, err)
	defer tmp.Close()
	buf.Path = tmp.Path()

	res, err := w.Transcribe(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, "hello there", res.Text)
	assert.Equal(t, buf.Data, *uploaded)
}

func TestWhisperTranscribeFromMemory(t *testing.T) {
	srv, uploaded := newWhisperServer(t, http.StatusOK, `{"text":"hi"}`)

	w, err := NewWhisperClient(WhisperConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	buf := canonicalBuffer(t, 16000)
	res, err := w.Transcribe(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", res.Text)
	assert.Equal(t, buf.Data, *uploaded)
}

func TestWhisperFailures(t *testing.T) {
	errBody, _ := json.Marshal(map[string]any{"error": map[string]any{"message": "nope", "type": "x"}})

	tests := []struct {
		name   string
		status int
		body   string
		want   model.TranscriptionFailure
	}{
		{"empty text", http.StatusOK, `{"text":""}`, model.FailureUnintelligible},
		{"server error", http.StatusServiceUnavailable, string(errBody), model.FailureProviderUnavailable},
		{"unauthorized", http.StatusUnauthorized, string(errBody), model.FailureProviderUnavailable},
		{"bad request", http.StatusBadRequest, string(errBody), model.FailureProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newWhisperServer(t, tt.status, tt.body)
			w, err := NewWhisperClient(WhisperConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})
			require.NoError(t, err)

			res, err := w.Transcribe(context.Background(), canonicalBuffer(t, 16000))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Failure)
		})
	}
}

func TestWhisperUnreachable(t *testing.T) {
	w, err := NewWhisperClient(WhisperConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1/v1"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := w.Transcribe(ctx, canonicalBuffer(t, 16000))
	require.NoError(t, err)
	assert.Equal(t, model.FailureProviderUnavailable, res.Failure)
}

func TestNewWhisperClientRequiresKey(t *testing.T) {
	_, err := NewWhisperClient(WhisperConfig{})
	assert.Error(t, err)
}

func TestBaseLanguage(t *testing.T) {
	assert.Equal(t, "en", baseLanguage("en-US"))
	assert.Equal(t, "pt", baseLanguage("pt_BR"))
	assert.Equal(t, "de", baseLanguage("DE"))
}

func TestSpoolDirIsCleanAfterWhisper(t *testing.T) {
	srv, _ := newWhisperServer(t, http.StatusOK, `{"text":"ok"}`)
	w, err := NewWhisperClient(WhisperConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)

	dir := t.TempDir()
	buf := canonicalBuffer(t, 16000)
	tmp, err := audio.Spool(dir, buf)
	require.NoError(t, err)
	buf.Path = tmp.Path()

	_, err = w.Transcribe(context.Background(), buf)
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
