package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ReactionCounts are the per-kind reaction tallies for one post. The
// zero value doubles as the fallback when a post's fetch fails.
type ReactionCounts struct {
	Likes   int `json:"likes"`
	Reposts int `json:"reposts"`
	Replies int `json:"replies"`
}

// PostReactions fetches reaction counts for many posts at once, bounded
// by the client's batch limit. Every requested id appears in the result:
// posts whose fetch failed report zero counts instead of being omitted,
// so one bad post never sinks a whole timeline render.
func (c *Client) PostReactions(ctx context.Context, postIDs []string) map[string]ReactionCounts {
	return Batch(ctx, postIDs, func(ctx context.Context, id string) (ReactionCounts, error) {
		counts, err := decodeGet[ReactionCounts](ctx, c, "/posts/"+url.PathEscape(id)+"/reactions")
		if err != nil {
			return ReactionCounts{}, err
		}
		return *counts, nil
	}, c.batchLimit, ReactionCounts{})
}

// CreatePost publishes a new post, optionally referencing uploaded media.
func (c *Client) CreatePost(ctx context.Context, text string, mediaIDs []string) (*Post, error) {
	body, err := encodeBody(map[string]any{
		"text":      text,
		"media_ids": mediaIDs,
	})
	if err != nil {
		return nil, err
	}

	payload, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   "/posts",
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var post Post
	if err := payload.Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

// Feed fetches the signed-in user's home timeline.
func (c *Client) Feed(ctx context.Context, limit int) ([]Post, error) {
	path := "/feed"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	payload, err := c.Do(ctx, Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return nil, err
	}

	var posts []Post
	if err := payload.Decode(&posts); err != nil {
		return nil, err
	}
	return posts, nil
}
