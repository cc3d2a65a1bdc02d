package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sleepsafe/internal/model"
)

func TestSynthesize(t *testing.T) {
	var got ttsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/text-to-speech/pNInz6obpgDQGcFmaJgB", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("xi-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3audio"))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "secret", BaseURL: srv.URL}, srv.Client(), nil)
	audio, err := c.Synthesize(context.Background(), "Rest well.", "pNInz6obpgDQGcFmaJgB", model.VoiceSettings{Stability: 0.8, Style: 0.1})
	require.NoError(t, err)
	require.Equal(t, []byte("ID3audio"), audio)
	require.Equal(t, "Rest well.", got.Text)
	require.Equal(t, DefaultModel, got.ModelID)
	require.Equal(t, 0.8, got.VoiceSettings.Stability)
	require.Equal(t, 0.1, got.VoiceSettings.Style)
}

func TestSynthesizeErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":{"status":"invalid_api_key","message":"Invalid API key"}}`))
	}))
	defer srv.Close()

	c := New(Config{APIKey: "bad", BaseURL: srv.URL}, srv.Client(), nil)
	_, err := c.Synthesize(context.Background(), "hi", "", model.VoiceSettings{})
	require.EqualError(t, err, "elevenlabs: status 401: Invalid API key")

	_, err = New(Config{}, nil, nil).Synthesize(context.Background(), "hi", "", model.VoiceSettings{})
	require.ErrorIs(t, err, ErrDisabled)
}

func TestLookupVoice(t *testing.T) {
	v, err := LookupVoice("serena")
	require.NoError(t, err)
	require.Equal(t, "pMsXgVXv3BLzUgSXRplE", v.ID)
	require.Equal(t, model.DefaultVoiceID, Voices[0].ID)
	require.Equal(t, "Nicole", VoiceName("piTKgcLEGmPE4e6mEKli"))
	_, err = LookupVoice("nobody")
	require.Error(t, err)
}
