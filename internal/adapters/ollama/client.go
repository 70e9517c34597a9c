// Package ollama provides an adapter for the Ollama LLM service.
// It classifies cleaned playlist rows by sending their audio features to a
// local Ollama instance and parsing the structured JSON reply into genre
// predictions.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/encore/internal/config"
	"github.com/ewilliams-labs/encore/internal/core/domain"
	"github.com/ewilliams-labs/encore/internal/core/ports"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "deepseek-r1:8b"
	defaultTimeout = 60 * time.Second
)

const systemPrompt = "You are the Encore genre classifier. For every track you receive, predict a broad genre (coarse) and a more specific sub-genre (fine).\n\nRules:\nInput: A JSON array of tracks with id, name, artists, artist_genre and audio features on a 0-100 scale.\nOutput: Return ONLY a valid JSON object of the form {\"predictions\": [{\"id\": \"...\", \"coarse\": \"...\", \"fine\": \"...\"}]}. No conversational text.\nCoverage: Return exactly one prediction per input track, using the same id.\nLabels: Use short lowercase genre names such as 'rock', 'indie rock', 'hip-hop', 'trap'."

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ ports.GenreClassifier = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

type trackInput struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Artists      string  `json:"artists"`
	Genres       string  `json:"artist_genre"`
	Danceability float64 `json:"danceability"`
	Energy       float64 `json:"energy"`
	Acousticness float64 `json:"acousticness"`
	Speechiness  float64 `json:"speechiness"`
	Valence      float64 `json:"valence"`
	Loudness     float64 `json:"loudness"`
	Tempo        float64 `json:"tempo"`
}

type predictionReply struct {
	Predictions []struct {
		ID     string `json:"id"`
		Coarse string `json:"coarse"`
		Fine   string `json:"fine"`
	} `json:"predictions"`
}

func NewClient(cfg config.Ollama, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.Host, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger.Named("ollama"),
	}
}

// PredictGenres asks the model for one prediction per row. Predictions are
// matched back to rows by id; a reply that leaves any row unanswered is
// rejected.
func (c *Client) PredictGenres(ctx context.Context, table domain.Table) ([]domain.GenrePrediction, error) {
	rows := table.Rows
	if len(rows) == 0 {
		return []domain.GenrePrediction{}, nil
	}

	tracks, err := json.Marshal(toInputs(table))
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal tracks: %w", err)
	}

	content, err := c.chat(ctx, string(tracks))
	if err != nil {
		return nil, err
	}

	var reply predictionReply
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return nil, fmt.Errorf("ollama: %w: decode predictions: %w", ports.ErrClassifierUnavailable, err)
	}

	byID := make(map[string]domain.GenrePrediction, len(reply.Predictions))
	for _, p := range reply.Predictions {
		byID[p.ID] = domain.GenrePrediction{
			Coarse: strings.ToLower(strings.TrimSpace(p.Coarse)),
			Fine:   strings.ToLower(strings.TrimSpace(p.Fine)),
		}
	}

	out := make([]domain.GenrePrediction, len(rows))
	for i, row := range rows {
		p, ok := byID[row.ID]
		if !ok {
			return nil, fmt.Errorf("ollama: %w: no prediction for track %s (%d of %d answered)",
				ports.ErrClassifierUnavailable, row.ID, len(reply.Predictions), len(rows))
		}
		out[i] = p
	}

	c.logger.Debug("ollama: classified tracks", zap.Int("tracks", len(out)), zap.String("model", c.model))
	return out, nil
}

func (c *Client) chat(ctx context.Context, message string) (string, error) {
	payload := chatRequest{
		Model:  c.model,
		Stream: false,
		Format: "json",
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ollama: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: %w: request failed: %w", ports.ErrClassifierUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama: %w: unexpected status %d", ports.ErrClassifierUnavailable, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("ollama: %w: %s", ports.ErrClassifierUnavailable, parsed.Error)
	}

	if strings.TrimSpace(parsed.Message.Content) == "" {
		return "", fmt.Errorf("ollama: %w: empty response", ports.ErrClassifierUnavailable)
	}
	return parsed.Message.Content, nil
}

// toInputs puts every feature on the 0..100 scale the prompt describes.
// Loudness and tempo are already rescaled to the table's scale.
func toInputs(table domain.Table) []trackInput {
	const scale = 100.0
	tableScale := table.Scale
	if tableScale <= 0 {
		tableScale = domain.ScalePercent
	}

	out := make([]trackInput, len(table.Rows))
	for i, r := range table.Rows {
		out[i] = trackInput{
			ID:           r.ID,
			Name:         r.Name,
			Artists:      r.Artists,
			Genres:       r.Genres,
			Danceability: r.Danceability * scale,
			Energy:       r.Energy * scale,
			Acousticness: r.Acousticness * scale,
			Speechiness:  r.Speechiness * scale,
			Valence:      r.Valence * scale,
			Loudness:     r.Loudness * scale / tableScale,
			Tempo:        r.Tempo * scale / tableScale,
		}
	}
	return out
}
