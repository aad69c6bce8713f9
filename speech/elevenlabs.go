// Package speech turns assistant replies into audio for the avatar.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"sarahdemo/config"
)

var (
	ErrNoText        = errors.New("no text provided")
	ErrNotConfigured = errors.New("speech API key not configured")
	ErrUpstream      = errors.New("speech generation failed")
)

// ContentType is the media type of the audio Synthesize returns.
const ContentType = "audio/pcm"

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// ElevenLabs is a text-to-speech client for the ElevenLabs API.
type ElevenLabs struct {
	cfg        config.SpeechConfig
	httpClient *http.Client
	logger     *zap.Logger
}

type Option func(*ElevenLabs)

func WithHTTPClient(c *http.Client) Option {
	return func(e *ElevenLabs) {
		e.httpClient = c
	}
}

func NewElevenLabs(cfg config.SpeechConfig, timeout time.Duration, logger *zap.Logger, opts ...Option) *ElevenLabs {
	e := &ElevenLabs{
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.httpClient == nil {
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		e.httpClient = &http.Client{Timeout: timeout}
	}
	return e
}

func (e *ElevenLabs) Configured() bool {
	return e.cfg.APIKey != ""
}

// Synthesize returns raw PCM audio for text.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}
	if !e.Configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(synthesizeRequest{
		Text:    text,
		ModelID: e.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       e.cfg.Stability,
			SimilarityBoost: e.cfg.SimilarityBoost,
			Style:           e.cfg.Style,
			UseSpeakerBoost: e.cfg.SpeakerBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=%s",
		strings.TrimSuffix(e.cfg.APIURL, "/"),
		url.PathEscape(e.cfg.VoiceID),
		url.QueryEscape(e.cfg.OutputFormat),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", ContentType)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.cfg.APIKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		e.logger.Error("speech API error", zap.Int("status", resp.StatusCode), zap.ByteString("body", detail))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio: %v", ErrUpstream, err)
	}
	e.logger.Debug("synthesized speech", zap.Int("chars", len(text)), zap.Int("bytes", len(audio)))
	return audio, nil
}
