package communication

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/timeliness-app/activity-tracker/pkg/logger"
)

func TestResponseManager_RespondWithErrorDetails(t *testing.T) {
	manager := ResponseManager{Logger: logger.Discard{}}
	recorder := httptest.NewRecorder()

	manager.RespondWithErrorDetails(recorder, http.StatusConflict, "Conflict", errors.New("busy"),
		map[string]interface{}{"retryable": true})

	if recorder.Code != http.StatusConflict {
		t.Errorf("status got = %d, want %d", recorder.Code, http.StatusConflict)
	}

	var body struct {
		Status int `json:"status"`
		Error  struct {
			Message   string `json:"message"`
			Retryable bool   `json:"retryable"`
		} `json:"error"`
		Err string `json:"err"`
	}

	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	if body.Status != http.StatusConflict || body.Error.Message != "Conflict" || !body.Error.Retryable || body.Err != "busy" {
		t.Errorf("body got = %+v", body)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" || recorder.Header().Get(HeaderRequestID) != seen {
		t.Errorf("request id got = %q, header = %q", seen, recorder.Header().Get(HeaderRequestID))
	}

	const given = "0b6c4f0e-6f1c-4c8e-9d53-6d3f6a0f9a11"
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set(HeaderRequestID, given)
	handler.ServeHTTP(httptest.NewRecorder(), request)

	if seen != given {
		t.Errorf("request id got = %q, want %q", seen, given)
	}
}
