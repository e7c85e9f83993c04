// Package testutil provides request, response and fixture helpers shared by
// the HTTP tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/odinbook/internal/models"
)

// AssertStatusCode checks if the response has the expected status code.
func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// AssertJSONContains checks if the JSON response contains expected key-value pairs.
func AssertJSONContains(t *testing.T, body []byte, key string, expected interface{}) {
	t.Helper()
	result := ParseJSONResponse(t, body)
	if result[key] != expected {
		t.Errorf("expected %s to be %v, got %v", key, expected, result[key])
	}
}

// NewTestRequest creates a new HTTP request for testing.
func NewTestRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewTestRequestWithJSON creates a new HTTP request with JSON body.
func NewTestRequestWithJSON(t *testing.T, method, path string, data interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return NewTestRequest(method, path, bytes.NewReader(body))
}

// ParseJSONResponse parses a JSON response body into a map.
func ParseJSONResponse(t *testing.T, body []byte) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v", err)
	}
	return result
}

// DecodeJSON unmarshals the recorded response body into dst.
func DecodeJSON(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

// RandomEmail generates a random email for testing.
func RandomEmail() string {
	return uuid.New().String()[:8] + "@test.com"
}

// NewAccount returns an account fixture with an empty friendship collection.
func NewAccount(firstName string) *models.Account {
	now := time.Now().UTC()
	return &models.Account{
		ID:            uuid.New(),
		FirstName:     firstName,
		LastName:      "Test",
		Email:         RandomEmail(),
		FriendshipIDs: []uuid.UUID{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewFriendship returns a friendship fixture between the two accounts.
func NewFriendship(requestor, requestee *models.Account, status models.FriendshipStatus) *models.Friendship {
	now := time.Now().UTC()
	return &models.Friendship{
		ID:          uuid.New(),
		RequestorID: requestor.ID,
		RequesteeID: requestee.ID,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
