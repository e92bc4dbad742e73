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
	"net/http"

	"github.com/gravitational/trace"
)

// PurchaseType is the scope of a purchase.
type PurchaseType string

const (
	PurchaseSingleSubject    PurchaseType = "single_subject"
	PurchaseMultipleSubjects PurchaseType = "multiple_subjects"
	PurchaseFullBundle       PurchaseType = "full_bundle"
)

// PurchaseRequest buys access to a course or some of its subjects.
type PurchaseRequest struct {
	CourseID     int64        `json:"course_id"`
	PurchaseType PurchaseType `json:"purchase_type"`
	SubjectID    int64        `json:"subject_id,omitempty"`
	SubjectIDs   []int64      `json:"subject_ids,omitempty"`
	Cost         float64      `json:"cost"`
}

// CheckAndSetDefaults validates the request.
func (r *PurchaseRequest) CheckAndSetDefaults() error {
	if r.CourseID == 0 {
		return trace.BadParameter("missing course_id")
	}
	switch r.PurchaseType {
	case PurchaseSingleSubject:
		if r.SubjectID == 0 {
			return trace.BadParameter("single subject purchase requires subject_id")
		}
	case PurchaseMultipleSubjects:
		if len(r.SubjectIDs) == 0 {
			return trace.BadParameter("multiple subjects purchase requires subject_ids")
		}
	case PurchaseFullBundle:
	default:
		return trace.BadParameter("unknown purchase_type %q", r.PurchaseType)
	}
	return nil
}

// GetUserProfile returns the extended user profile.
func (c *Client) GetUserProfile(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/user/profile", nil)
}

// UpdateUserProfile patches the extended user profile.
func (c *Client) UpdateUserProfile(ctx context.Context, patch map[string]interface{}) (json.RawMessage, error) {
	return c.sendRaw(ctx, http.MethodPatch, "/api/user/profile", patch)
}

// GetUserStats returns the user's learning statistics.
func (c *Client) GetUserStats(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/user/stats", nil)
}

// GetAcademics returns the user's academic details.
func (c *Client) GetAcademics(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/user/academics", nil)
}

// UpdateAcademics patches the user's academic details.
func (c *Client) UpdateAcademics(ctx context.Context, patch map[string]interface{}) (json.RawMessage, error) {
	return c.sendRaw(ctx, http.MethodPatch, "/api/user/academics", patch)
}

// ListPurchases returns the user's purchases.
func (c *Client) ListPurchases(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/user/purchases", nil)
}

// CreatePurchase records a purchase.
func (c *Client) CreatePurchase(ctx context.Context, req PurchaseRequest) (json.RawMessage, error) {
	if err := req.CheckAndSetDefaults(); err != nil {
		return nil, trace.Wrap(err)
	}
	return c.sendRaw(ctx, http.MethodPost, "/api/purchases", req)
}
