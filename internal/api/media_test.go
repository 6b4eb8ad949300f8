package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUploadMedia(t *testing.T) {
	var uploaded []byte
	var uploadContentType string

	// Separate server standing in for the signed upload URL.
	uploadServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("upload method = %s, want PUT", r.Method)
		}
		uploadContentType = r.Header.Get("Content-Type")
		uploaded, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(uploadServer.Close)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/media/uploads" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"media_id":"m7","upload_url":%q}`, uploadServer.URL+"/blob")
	})

	id, err := client.UploadMedia(context.Background(), "image/png", []byte("pixels"))
	if err != nil {
		t.Fatalf("UploadMedia: %v", err)
	}
	if id != "m7" {
		t.Errorf("media id = %q, want m7", id)
	}
	if string(uploaded) != "pixels" {
		t.Errorf("uploaded bytes = %q, want pixels", uploaded)
	}
	if uploadContentType != "image/png" {
		t.Errorf("upload content type = %q, want image/png", uploadContentType)
	}
}

func TestUploadMediaRejectsIncompleteSlot(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"media_id":"m7"}`)
	})

	_, err := client.UploadMedia(context.Background(), "image/png", []byte("pixels"))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestUploadMediaSurfacesUploadFailure(t *testing.T) {
	uploadServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	t.Cleanup(uploadServer.Close)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"media_id":"m7","upload_url":%q}`, uploadServer.URL)
	})

	_, err := client.UploadMedia(context.Background(), "image/png", []byte("pixels"))

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusForbidden {
		t.Fatalf("err = %v, want HTTPError with status 403", err)
	}
}
