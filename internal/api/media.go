package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// uploadSlot is the backend's answer to an upload request: a media id to
// reference in posts and a URL to PUT the bytes to.
type uploadSlot struct {
	MediaID   string `json:"media_id"`
	UploadURL string `json:"upload_url"`
}

// UploadMedia reserves an upload slot with the backend, uploads the
// bytes to the returned URL, and returns the media id for use in
// CreatePost. The slot request goes through the executor (and thus the
// auth retry protocol); the upload itself is a plain PUT to an already
// signed URL.
func (c *Client) UploadMedia(ctx context.Context, contentType string, data []byte) (string, error) {
	body, err := encodeBody(map[string]any{
		"content_type": contentType,
		"size":         len(data),
	})
	if err != nil {
		return "", err
	}

	payload, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/media/uploads",
		Body:   body,
	})
	if err != nil {
		return "", err
	}

	var slot uploadSlot
	if err := payload.Decode(&slot); err != nil {
		return "", err
	}
	if slot.UploadURL == "" || slot.MediaID == "" {
		return "", fmt.Errorf("%w: upload slot missing media_id or upload_url", ErrInvalidResponse)
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, slot.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	putReq.Header.Set("Content-Type", contentType)
	putReq.ContentLength = int64(len(data))

	resp, err := c.httpClient.Do(putReq)
	if err != nil {
		return "", fmt.Errorf("uploading media: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &HTTPError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return slot.MediaID, nil
}
