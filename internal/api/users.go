package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// User is a Nightjar account as the backend reports it.
type User struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

// Post is a single post in a user's timeline.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	MediaIDs  []string  `json:"media_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ResolveUser looks up a user by handle. Deployments disagree on where
// the lookup route lives, so several shapes are probed, canonical first.
func (c *Client) ResolveUser(ctx context.Context, handle string) (*User, error) {
	h := url.PathEscape(handle)
	candidates := []string{
		"/users/" + h,
		"/users/handle/" + h,
		"/profiles/" + h,
	}

	return Probe(ctx, candidates, func(ctx context.Context, path string) (*User, error) {
		return decodeGet[User](ctx, c, path)
	})
}

// UserPosts fetches a user's posts, probing the known route shapes.
func (c *Client) UserPosts(ctx context.Context, handle string) ([]Post, error) {
	h := url.PathEscape(handle)
	candidates := []string{
		"/users/" + h + "/posts",
		"/posts/user/" + h,
		"/profiles/" + h + "/posts",
	}

	return Probe(ctx, candidates, func(ctx context.Context, path string) ([]Post, error) {
		payload, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path})
		if err != nil {
			return nil, err
		}
		var posts []Post
		if err := payload.Decode(&posts); err != nil {
			return nil, err
		}
		return posts, nil
	})
}

// Follow starts following the user with the given id.
func (c *Client) Follow(ctx context.Context, userID string) error {
	_, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/users/" + url.PathEscape(userID) + "/follow",
	})
	return err
}

// Unfollow stops following the user with the given id. The unfollow
// route has moved between deployments, so all known shapes are probed.
func (c *Client) Unfollow(ctx context.Context, userID string) error {
	id := url.PathEscape(userID)
	candidates := []string{
		"/users/" + id + "/follow",
		"/users/" + id + "/unfollow",
		"/follows/" + id,
	}

	_, err := Probe(ctx, candidates, func(ctx context.Context, path string) (struct{}, error) {
		method := http.MethodDelete
		if path == "/users/"+id+"/unfollow" {
			method = http.MethodPost
		}
		if _, err := c.Do(ctx, Request{Method: method, Path: path}); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, nil
	})
	return err
}

// decodeGet performs a GET and decodes the JSON payload into T.
func decodeGet[T any](ctx context.Context, c *Client, path string) (*T, error) {
	payload, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}
	var v T
	if err := payload.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// encodeBody serializes v as the opaque body text of a Request.
func encodeBody(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding request body: %w", err)
	}
	return string(data), nil
}
