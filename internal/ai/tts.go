package ai

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"quizly/internal/apperr"
)

// GoogleTTSClient synthesizes speech through Google Cloud Text-to-Speech.
// LINEAR16 output means every segment arrives as a self-contained WAV blob,
// which keeps downstream concatenation deterministic.
type GoogleTTSClient struct {
	client *texttospeech.Client
}

func NewGoogleTTSClient(ctx context.Context) (*GoogleTTSClient, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google TTS client: %w", err)
	}

	return &GoogleTTSClient{client: client}, nil
}

func (c *GoogleTTSClient) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: voice.LanguageCode,
			Name:         voice.Name,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_LINEAR16,
			SpeakingRate:  1.0,
			Pitch:         0.0,
		},
	}

	resp, err := c.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: google tts: %v", apperr.ErrProvider, err)
	}

	if len(resp.AudioContent) == 0 {
		return nil, fmt.Errorf("%w: google tts returned no audio", apperr.ErrProvider)
	}

	return resp.AudioContent, nil
}

func (c *GoogleTTSClient) Close() error {
	return c.client.Close()
}
