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

// Course is an exam a user can prepare for.
type Course struct {
	ID          int64     `json:"id"`
	Name        string    `json:"course_name"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount,omitempty"`
	OfferAmount float64   `json:"offer_amount,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	CreatedAt   string    `json:"created_at,omitempty"`
	Subjects    []Subject `json:"subjects,omitempty"`
}

// Subject is a purchasable part of a course.
type Subject struct {
	ID             int64   `json:"id"`
	Name           string  `json:"subject_name"`
	ExamCategoryID int64   `json:"exam_category_id,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	OfferAmount    float64 `json:"offer_amount,omitempty"`
	MaxTokens      int     `json:"max_tokens,omitempty"`
	TotalMock      int     `json:"total_mock,omitempty"`
	IsBundle       bool    `json:"is_bundle,omitempty"`
	IsDeleted      bool    `json:"is_deleted,omitempty"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

type coursesData struct {
	Courses []Course `json:"courses"`
}

type courseData struct {
	Course Course `json:"course"`
}

func (c *courseData) Validate() error {
	if c.Course.ID == 0 {
		return trace.BadParameter("missing course")
	}
	return nil
}

type subjectsData struct {
	Subjects []Subject `json:"subjects"`
}

// ListCourses returns every course.
func (c *Client) ListCourses(ctx context.Context) ([]Course, error) {
	data, err := CallData[coursesData](ctx, c, http.MethodGet, "/api/courses", nil)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return data.Courses, nil
}

// GetCourse returns a course, with its subjects when includeSubjects is set.
func (c *Client) GetCourse(ctx context.Context, id int64, includeSubjects bool) (*Course, error) {
	query := url.Values{"include_subjects": {strconv.FormatBool(includeSubjects)}}
	data, err := CallData[courseData](ctx, c, http.MethodGet, fmt.Sprintf("/api/courses/%d", id), nil, WithQuery(query))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return &data.Course, nil
}

// ListSubjects returns the subjects of a course.
func (c *Client) ListSubjects(ctx context.Context, courseID int64) ([]Subject, error) {
	data, err := CallData[subjectsData](ctx, c, http.MethodGet, "/api/subjects", nil, WithQuery(courseQuery(courseID)))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return data.Subjects, nil
}

// ListBundles returns the subject bundles of a course.
func (c *Client) ListBundles(ctx context.Context, courseID int64) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/bundles", courseQuery(courseID))
}

func courseQuery(courseID int64) url.Values {
	return url.Values{"course_id": {strconv.FormatInt(courseID, 10)}}
}

// getRaw and sendRaw cover the endpoints whose payload the client passes through
// without looking into it.
func (c *Client) getRaw(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	var opts []RequestOption
	if len(query) > 0 {
		opts = append(opts, WithQuery(query))
	}
	envelope, err := Call[json.RawMessage](ctx, c, http.MethodGet, path, nil, opts...)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return rawData(envelope), nil
}

func (c *Client) sendRaw(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	envelope, err := Call[json.RawMessage](ctx, c, method, path, body)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return rawData(envelope), nil
}

func rawData(envelope *Envelope[json.RawMessage]) json.RawMessage {
	if envelope.Data == nil {
		return nil
	}
	return *envelope.Data
}

func pageQuery(page, perPage int) url.Values {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
}
