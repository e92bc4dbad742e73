/*
Copyright 2026 The Jishu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gravitational/trace"
)

// ListPosts returns a page of community posts.
func (c *Client) ListPosts(ctx context.Context, page, perPage int) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/community/posts", pageQuery(page, perPage))
}

// CreatePost publishes a post. The post fields are passed through as given.
func (c *Client) CreatePost(ctx context.Context, post map[string]interface{}) (json.RawMessage, error) {
	if len(post) == 0 {
		return nil, trace.BadParameter("empty post")
	}
	return c.sendRaw(ctx, http.MethodPost, "/api/community/posts", post)
}

// LikePost toggles the user's like on a post.
func (c *Client) LikePost(ctx context.Context, postID int64) (json.RawMessage, error) {
	return c.sendRaw(ctx, http.MethodPost, fmt.Sprintf("/api/community/posts/%d/like", postID), nil)
}

// CommentOnPost adds a comment to a post.
func (c *Client) CommentOnPost(ctx context.Context, postID int64, content string) (json.RawMessage, error) {
	if content == "" {
		return nil, trace.BadParameter("empty comment")
	}
	body := map[string]string{"content": content}
	return c.sendRaw(ctx, http.MethodPost, fmt.Sprintf("/api/community/posts/%d/comment", postID), body)
}

// ListComments returns a page of the comments on a post.
func (c *Client) ListComments(ctx context.Context, postID int64, page, perPage int) (json.RawMessage, error) {
	return c.getRaw(ctx, fmt.Sprintf("/api/community/posts/%d/comments", postID), pageQuery(page, perPage))
}

// DeletePost removes one of the user's posts.
func (c *Client) DeletePost(ctx context.Context, postID int64) error {
	_, err := c.sendRaw(ctx, http.MethodDelete, fmt.Sprintf("/api/community/posts/%d", postID), nil)
	return trace.Wrap(err)
}

// DeleteComment removes one of the user's comments.
func (c *Client) DeleteComment(ctx context.Context, commentID int64) error {
	_, err := c.sendRaw(ctx, http.MethodDelete, fmt.Sprintf("/api/community/comments/%d", commentID), nil)
	return trace.Wrap(err)
}
