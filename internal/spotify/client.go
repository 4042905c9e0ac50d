// Package spotify controls playback through the Spotify Web API and handles
// the OAuth authorization needed to call it.
package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultAPIURL is the Web API base URL.
const DefaultAPIURL = "https://api.spotify.com/v1"

var (
	// ErrNoActiveDevice is returned when no Spotify device is playing or
	// ready to play.
	ErrNoActiveDevice = errors.New("no active Spotify device")
	// ErrNoResults is returned when a search finds no track.
	ErrNoResults = errors.New("no tracks found")
	// ErrNothingPlaying is returned by Like when no track is loaded.
	ErrNothingPlaying = errors.New("no track is currently playing")
	// ErrVolumeUnsupported is returned when the active device cannot change volume.
	ErrVolumeUnsupported = errors.New("volume control not supported on device")
)

// APIError is a non-2xx response from the Web API.
type APIError struct {
	Status  int
	Message string
	Reason  string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify api: status %d", e.Status)
	}
	return fmt.Sprintf("spotify api: status %d: %s", e.Status, e.Message)
}

// Track is a search or playback result.
type Track struct {
	ID      string   `json:"id"`
	URI     string   `json:"uri"`
	Name    string   `json:"name"`
	Artists []Artist `json:"artists"`
}

// Artist is a track artist.
type Artist struct {
	Name string `json:"name"`
}

// ArtistName returns the first artist's name, or "".
func (t Track) ArtistName() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// Device is a Spotify Connect device.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
	// Volume is nil on devices that do not support volume control.
	Volume *int `json:"volume_percent"`
}

// Client calls the Web API. The HTTP client is expected to add the bearer
// token, as an oauth2 client does.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a Client. An empty baseURL selects DefaultAPIURL.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Play resumes playback on the active device.
func (c *Client) Play(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/me/player/play", nil, nil)
}

// Pause pauses playback on the active device.
func (c *Client) Pause(ctx context.Context) error {
	return c.do(ctx, http.MethodPut, "/me/player/pause", nil, nil)
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/me/player/next", nil, nil)
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/me/player/previous", nil, nil)
}

// Search returns the top track matching query, or ErrNoResults.
func (c *Client) Search(ctx context.Context, query string) (*Track, error) {
	params := url.Values{
		"q":     {query},
		"type":  {"track"},
		"limit": {"1"},
	}

	var out struct {
		Tracks struct {
			Items []Track `json:"items"`
		} `json:"tracks"`
	}
	if err := c.do(ctx, http.MethodGet, "/search?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Tracks.Items) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoResults, query)
	}
	return &out.Tracks.Items[0], nil
}

// SearchAndPlay searches for query and starts playing the top result.
func (c *Client) SearchAndPlay(ctx context.Context, query string) error {
	track, err := c.Search(ctx, query)
	if err != nil {
		return err
	}

	body := map[string][]string{"uris": {track.URI}}
	if err := c.do(ctx, http.MethodPut, "/me/player/play", body, nil); err != nil {
		return err
	}

	log.WithFields(log.Fields{"track": track.Name, "artist": track.ArtistName()}).Info("Playing track")
	return nil
}

// CurrentTrack returns the track loaded on the active device, or
// ErrNothingPlaying.
func (c *Client) CurrentTrack(ctx context.Context) (*Track, error) {
	var out struct {
		Item *Track `json:"item"`
	}
	if err := c.do(ctx, http.MethodGet, "/me/player/currently-playing", nil, &out); err != nil {
		return nil, err
	}
	if out.Item == nil || out.Item.ID == "" {
		return nil, ErrNothingPlaying
	}
	return out.Item, nil
}

// Like saves the current track to the user's library.
func (c *Client) Like(ctx context.Context) error {
	track, err := c.CurrentTrack(ctx)
	if err != nil {
		return err
	}

	path := "/me/tracks?" + url.Values{"ids": {track.ID}}.Encode()
	if err := c.do(ctx, http.MethodPut, path, nil, nil); err != nil {
		return err
	}

	log.WithFields(log.Fields{"track": track.Name, "artist": track.ArtistName()}).Info("Added track to liked songs")
	return nil
}

// Devices lists the user's devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var out struct {
		Devices []Device `json:"devices"`
	}
	if err := c.do(ctx, http.MethodGet, "/me/player/devices", nil, &out); err != nil {
		return nil, err
	}
	return out.Devices, nil
}

// VolumeUp raises the active device volume by step percent, capped at 100.
func (c *Client) VolumeUp(ctx context.Context, step int) error {
	return c.changeVolume(ctx, step)
}

// VolumeDown lowers the active device volume by step percent, floored at 0.
func (c *Client) VolumeDown(ctx context.Context, step int) error {
	return c.changeVolume(ctx, -step)
}

func (c *Client) changeVolume(ctx context.Context, delta int) error {
	devices, err := c.Devices(ctx)
	if err != nil {
		return err
	}

	var active *Device
	for i := range devices {
		if devices[i].IsActive {
			active = &devices[i]
			break
		}
	}
	if active == nil {
		return ErrNoActiveDevice
	}
	if active.Volume == nil {
		return fmt.Errorf("%w: %s", ErrVolumeUnsupported, active.Name)
	}

	volume := min(max(*active.Volume+delta, 0), 100)
	params := url.Values{
		"volume_percent": {strconv.Itoa(volume)},
		"device_id":      {active.ID},
	}
	if err := c.do(ctx, http.MethodPut, "/me/player/volume?"+params.Encode(), nil, nil); err != nil {
		return err
	}

	log.WithFields(log.Fields{"device": active.Name, "volume": volume}).Info("Volume changed")
	return nil
}

// do sends a request with an optional JSON body and decodes a JSON response
// into out when out is non-nil and the response has a body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("spotify %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("spotify decode: %w", err)
	}
	return nil
}

func parseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
			Reason  string `json:"reason"`
		} `json:"error"`
	}

	apiErr := &APIError{Status: resp.StatusCode}
	if json.Unmarshal(data, &payload) == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		apiErr.Reason = payload.Error.Reason
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}

	if apiErr.Reason == "NO_ACTIVE_DEVICE" {
		return fmt.Errorf("%w: %w", ErrNoActiveDevice, apiErr)
	}
	return apiErr
}
