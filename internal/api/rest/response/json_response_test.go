package response

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	cases := map[string]struct {
		status   int
		data     any
		expected string
	}{
		"Struct": {http.StatusOK, struct {
			Name string `json:"name"`
		}{Name: "test"}, `{"name":"test"}`},
		"String":  {http.StatusOK, "test", `"test"`},
		"Created": {http.StatusCreated, map[string]string{"url": "https://example.com"}, `{"url":"https://example.com"}`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteJSON(rr, tc.status, tc.data)
			checkResponse(t, rr, tc.status, tc.expected)
		})
	}
}

func TestWriteError(t *testing.T) {
	cases := map[string]struct {
		status   int
		category string
		message  string
		expected string
	}{
		"WithMessage": {
			http.StatusNotFound, "not_found", "user not found",
			`{"error":"not_found","message":"user not found"}`,
		},
		"WithoutMessage": {
			http.StatusUnauthorized, "unauthorized", "",
			`{"error":"unauthorized"}`,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tc.status, tc.category, tc.message)
			checkResponse(t, rr, tc.status, tc.expected)
		})
	}
}

func checkResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedBody string) {
	result := rr.Result()
	defer result.Body.Close()

	body, _ := io.ReadAll(result.Body)

	if result.StatusCode != expectedStatus {
		t.Errorf("Expected response code %v. Got %v", expectedStatus, result.StatusCode)
	}
	if string(body) != expectedBody+"\n" {
		t.Errorf("Expected response %s. Got %s", expectedBody, string(body))
	}
	if ct := result.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected content type application/json. Got %s", ct)
	}
}
