package recognize

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	return path
}

func TestAudDClient_Recognize(t *testing.T) {
	var gotToken, gotFile string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotToken = r.FormValue("api_token")
		f, _, err := r.FormFile("file")
		if err == nil {
			data, _ := io.ReadAll(f)
			gotFile = string(data)
			f.Close()
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"success","result":{"artist":"Daft Punk","title":"One More Time","album":"Discovery","release_date":"2000-11-13","label":"Virgin"}}`)
	}))
	defer ts.Close()

	c := NewAudDClient(ts.URL, "secret-token")
	song, err := c.Recognize(context.Background(), writeClip(t))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	if gotToken != "secret-token" {
		t.Errorf("api_token = %q, want secret-token", gotToken)
	}
	if gotFile != "RIFF....WAVE" {
		t.Errorf("uploaded file = %q", gotFile)
	}

	want := Song{Track: "One More Time", Artist: "Daft Punk", Album: "Discovery", ReleaseDate: "2000-11-13", Label: "Virgin"}
	if *song != want {
		t.Errorf("song = %+v, want %+v", *song, want)
	}
	if song.Query() != "One More Time Daft Punk" {
		t.Errorf("Query() = %q", song.Query())
	}
}

func TestAudDClient_Responses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantErr   error
		wantAPI   bool
		wantTrack string
	}{
		{
			name:    "no match",
			status:  http.StatusOK,
			body:    `{"status":"success","result":null}`,
			wantErr: ErrNoMatch,
		},
		{
			name:    "service error",
			status:  http.StatusOK,
			body:    `{"status":"error","error":{"error_code":900,"error_message":"Recognition failed: authorization failed"}}`,
			wantAPI: true,
		},
		{
			name:    "http error",
			status:  http.StatusBadGateway,
			body:    `upstream down`,
			wantAPI: true,
		},
		{
			name:      "blank fields are filled",
			status:    http.StatusOK,
			body:      `{"status":"success","result":{"artist":"","title":""}}`,
			wantTrack: UnknownTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			song, err := NewAudDClient(ts.URL, "t").Recognize(context.Background(), writeClip(t))

			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
			case tt.wantAPI:
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Errorf("error = %v, want *APIError", err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if song.Track != tt.wantTrack || song.Artist != UnknownArtist {
					t.Errorf("song = %+v", song)
				}
			}
		})
	}
}

func TestAudDClient_MissingFile(t *testing.T) {
	c := NewAudDClient("http://127.0.0.1:1", "t")
	if _, err := c.Recognize(context.Background(), filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("expected error for missing recording")
	}
}
