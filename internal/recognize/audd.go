package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// DefaultEndpoint is the AudD recognition API.
const DefaultEndpoint = "https://api.audd.io/"

// AudDClient identifies recordings with the AudD music recognition API.
type AudDClient struct {
	endpoint string
	token    string
	c        *http.Client
}

// NewAudDClient creates a client. An empty endpoint selects DefaultEndpoint.
func NewAudDClient(endpoint, token string) *AudDClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &AudDClient{
		endpoint: endpoint,
		token:    token,
		c:        &http.Client{Timeout: 60 * time.Second},
	}
}

type auddResponse struct {
	Status string       `json:"status"`
	Result *auddResult  `json:"result"`
	Error  *auddFailure `json:"error"`
}

type auddResult struct {
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
	Label       string `json:"label"`
}

type auddFailure struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_message"`
}

// Recognize uploads the WAV file at wavPath and returns the matched song.
// It returns ErrNoMatch when the service has no match.
func (a *AudDClient) Recognize(ctx context.Context, wavPath string) (*Song, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	if err := w.WriteField("api_token", a.token); err != nil {
		return nil, err
	}

	fw, err := w.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return nil, err
	}
	fd, err := os.Open(wavPath)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	if _, err = io.Copy(fw, fd); err != nil {
		return nil, err
	}
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := a.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{Code: resp.StatusCode, Message: string(bytes.TrimSpace(body))}
	}

	var out auddResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("audd decode: %w", err)
	}

	if out.Status == "error" {
		if out.Error == nil {
			return nil, &APIError{Message: "unspecified error"}
		}
		return nil, &APIError{Code: out.Error.Code, Message: out.Error.Message}
	}
	if out.Result == nil {
		return nil, ErrNoMatch
	}

	song := &Song{
		Track:       out.Result.Title,
		Artist:      out.Result.Artist,
		Album:       out.Result.Album,
		ReleaseDate: out.Result.ReleaseDate,
		Label:       out.Result.Label,
	}
	song.fillUnknown()
	return song, nil
}
