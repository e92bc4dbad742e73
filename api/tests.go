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
	"net/url"
	"strconv"

	"github.com/gravitational/trace"
)

// Answer is the user's choice for one question of a test session.
type Answer struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

// MCQRequest asks for generated multiple choice questions.
type MCQRequest struct {
	Subject      string `json:"subject"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
}

// ChatbotQuery is a question for the study assistant.
type ChatbotQuery struct {
	Query         string   `json:"query"`
	Subjects      []string `json:"subjects,omitempty"`
	IncludeImages bool     `json:"include_images,omitempty"`
}

// ListTestCards returns the mock tests available to the user, for one subject when
// subjectID is not zero.
func (c *Client) ListTestCards(ctx context.Context, subjectID int64) (json.RawMessage, error) {
	var query url.Values
	if subjectID != 0 {
		query = url.Values{"subject_id": {strconv.FormatInt(subjectID, 10)}}
	}
	return c.getRaw(ctx, "/api/user/test-cards", query)
}

// GetTestInstructions prepares a mock test and returns its instructions.
func (c *Client) GetTestInstructions(ctx context.Context, mockTestID int64) (json.RawMessage, error) {
	return c.sendRaw(ctx, http.MethodPost, fmt.Sprintf("/api/user/test-cards/%d/instructions", mockTestID), nil)
}

// GetTestGenerationStatus reports whether the questions of a mock test are ready.
func (c *Client) GetTestGenerationStatus(ctx context.Context, mockTestID int64) (json.RawMessage, error) {
	return c.getRaw(ctx, fmt.Sprintf("/api/user/test-cards/%d/generation-status", mockTestID), nil)
}

// StartTest opens a test session.
func (c *Client) StartTest(ctx context.Context, mockTestID int64) (json.RawMessage, error) {
	return c.sendRaw(ctx, http.MethodPost, fmt.Sprintf("/api/user/test-cards/%d/start", mockTestID), nil)
}

// GetTestQuestions returns a page of the questions of a test session.
func (c *Client) GetTestQuestions(ctx context.Context, sessionID int64, page, perPage int) (json.RawMessage, error) {
	return c.getRaw(ctx, fmt.Sprintf("/api/user/test-sessions/%d/questions", sessionID), pageQuery(page, perPage))
}

// SubmitTest closes a test session with the given answers.
func (c *Client) SubmitTest(ctx context.Context, sessionID int64, answers []Answer) (json.RawMessage, error) {
	body := map[string]interface{}{"answers": answers}
	return c.sendRaw(ctx, http.MethodPost, fmt.Sprintf("/api/user/test-sessions/%d/submit", sessionID), body)
}

// GetTestAnalytics returns the user's test results.
func (c *Client) GetTestAnalytics(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/user/test-analytics", nil)
}

// GenerateMCQ asks the backend for generated questions.
func (c *Client) GenerateMCQ(ctx context.Context, req MCQRequest) (json.RawMessage, error) {
	if req.Subject == "" || req.NumQuestions <= 0 {
		return nil, trace.BadParameter("subject and a positive num_questions are required")
	}
	return c.sendRaw(ctx, http.MethodPost, "/api/mcq/generate", req)
}

// QueryChatbot sends a question to the study assistant.
func (c *Client) QueryChatbot(ctx context.Context, query ChatbotQuery) (json.RawMessage, error) {
	if query.Query == "" {
		return nil, trace.BadParameter("missing query")
	}
	return c.sendRaw(ctx, http.MethodPost, "/api/chatbot/query", query)
}
