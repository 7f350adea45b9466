package analyzer

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func mustClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{BaseURL: baseURL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected client error: %v", err)
	}
	return client
}

func TestClientDetectUploadsAudioAndWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect_beats" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
			return
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("missing audio part: %v", err)
			return
		}
		defer file.Close()
		contents, _ := io.ReadAll(file)
		if header.Filename != "song.mp3" || string(contents) != "ID3-audio-bytes" {
			t.Errorf("unexpected upload %s %q", header.Filename, contents)
		}
		if r.FormValue("start_time") != "1.5" || r.FormValue("end_time") != "30" {
			t.Errorf("unexpected window %s-%s", r.FormValue("start_time"), r.FormValue("end_time"))
		}
		if r.FormValue("num_beats") != "8" || r.FormValue("even_spacing") != "false" {
			t.Errorf("unexpected options %s %s", r.FormValue("num_beats"), r.FormValue("even_spacing"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sync_points":[{"slide":"Slide 1","time":1.52},{"slide":"Slide 2","time":2.04}],"estimated_total_duration":2.04}`))
	}))
	defer server.Close()

	result, err := mustClient(t, server.URL).Detect(context.Background(), Request{
		Filename:  "song.mp3",
		Audio:     strings.NewReader("ID3-audio-bytes"),
		StartTime: 1.5,
		EndTime:   30,
		NumBeats:  8,
	})
	if err != nil {
		t.Fatalf("unexpected detect error: %v", err)
	}
	times := result.BeatTimes()
	if len(times) != 2 || times[0] != 1.52 || times[1] != 2.04 {
		t.Fatalf("unexpected beat times %v", times)
	}
	if result.EstimatedTotalDuration != 2.04 {
		t.Fatalf("unexpected total duration %v", result.EstimatedTotalDuration)
	}
}

func TestClientDetectReportsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		http.Error(w, "decoder crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := mustClient(t, server.URL).Detect(context.Background(), Request{Audio: strings.NewReader("x")})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	if _, err := mustClient(t, server.URL).Detect(context.Background(), Request{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for missing audio, got %v", err)
	}
}

func TestClientDetectEmptyResultKeepsSlice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = w.Write([]byte(`{"estimated_total_duration":0}`))
	}))
	defer server.Close()

	result, err := mustClient(t, server.URL).Detect(context.Background(), Request{Audio: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("unexpected detect error: %v", err)
	}
	if result.SyncPoints == nil || len(result.SyncPoints) != 0 {
		t.Fatalf("expected empty non-nil sync points, got %#v", result.SyncPoints)
	}
}
