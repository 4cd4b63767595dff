package activities

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/timeliness-app/activity-tracker/pkg/communication"
	"github.com/timeliness-app/activity-tracker/pkg/logger"
)

func newTestRouter() *mux.Router {
	log := logger.Discard{}
	handler := Handler{
		Service:         newTestService(NewMemoryActivityRepository()),
		Logger:          log,
		ResponseManager: &communication.ResponseManager{Logger: log},
	}

	r := mux.NewRouter()
	handler.RegisterRoutes(r)
	r.Use(communication.JSONMiddleware)

	return r
}

func doRequest(t *testing.T, r http.Handler, method string, target string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	recorder := httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest(method, target, &payload))

	response := map[string]interface{}{}
	if recorder.Body.Len() > 0 {
		if err := json.Unmarshal(recorder.Body.Bytes(), &response); err != nil {
			t.Fatalf("%s %s returned invalid json: %s", method, target, recorder.Body.String())
		}
	}

	return recorder, response
}

func TestHandler_ActivityLifecycle(t *testing.T) {
	useClock(t, monday)
	r := newTestRouter()

	recorder, created := doRequest(t, r, http.MethodPost, "/v1/activities", map[string]interface{}{
		"name":              "Reading",
		"targetDuration":    "00:04:10",
		"weeksCount":        2,
		"scheduledWeekdays": []string{"Monday", "Wednesday"},
		"priority":          "High",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("create got status %d: %s", recorder.Code, recorder.Body.String())
	}
	if created["targetDuration"] != "00:04:10" {
		t.Errorf("targetDuration got = %v", created["targetDuration"])
	}

	id := created["id"].(string)
	base := "/v1/activities/" + id

	recorder, resolved := doRequest(t, r, http.MethodGet, base+"/occurrences?date=2024-01-15", nil)
	if recorder.Code != http.StatusOK || resolved["index"] != float64(2) {
		t.Errorf("resolve got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder, _ = doRequest(t, r, http.MethodGet, base+"/occurrences?date=2024-01-16", nil)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("resolve of an unscheduled day got status %d", recorder.Code)
	}

	recorder, started := doRequest(t, r, http.MethodPut, base+"/occurrences/0", map[string]string{"action": "start"})
	if recorder.Code != http.StatusOK || started["state"] != string(StateRunning) {
		t.Errorf("start got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder, _ = doRequest(t, r, http.MethodPut, base+"/occurrences/0", map[string]string{"action": "start"})
	if recorder.Code != http.StatusConflict {
		t.Errorf("second start got status %d", recorder.Code)
	}

	recorder, _ = doRequest(t, r, http.MethodPut, base+"/occurrences/4", map[string]string{"action": "start"})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("out of range got status %d", recorder.Code)
	}

	recorder, _ = doRequest(t, r, http.MethodPut, base+"/occurrences/1", map[string]string{"action": "jump"})
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("unknown action got status %d", recorder.Code)
	}

	recorder, completed := doRequest(t, r, http.MethodPut, base+"/occurrences?date=2024-01-10", map[string]string{"action": "complete"})
	if recorder.Code != http.StatusOK || completed["index"] != float64(1) || completed["state"] != string(StateCompleted) {
		t.Errorf("complete by date got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder, detail := doRequest(t, r, http.MethodGet, base, nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("get got status %d", recorder.Code)
	}
	if schedule, ok := detail["schedule"].([]interface{}); !ok || len(schedule) != 4 {
		t.Errorf("schedule got = %v", detail["schedule"])
	}

	recorder, agenda := doRequest(t, r, http.MethodGet, "/v1/agenda?date=2024-01-10&filter=Completed", nil)
	if recorder.Code != http.StatusOK || agenda["completedCount"] != float64(1) {
		t.Errorf("agenda got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder, updated := doRequest(t, r, http.MethodPatch, base+"/priority", map[string]string{"priority": "Low"})
	if recorder.Code != http.StatusOK || updated["priority"] != "Low" {
		t.Errorf("priority got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder, list := doRequest(t, r, http.MethodGet, "/v1/activities", nil)
	if recorder.Code != http.StatusOK || list["count"] != float64(1) {
		t.Errorf("list got %d: %s", recorder.Code, recorder.Body.String())
	}

	recorder, _ = doRequest(t, r, http.MethodDelete, base, nil)
	if recorder.Code != http.StatusNoContent {
		t.Errorf("delete got status %d", recorder.Code)
	}

	recorder, _ = doRequest(t, r, http.MethodGet, base, nil)
	if recorder.Code != http.StatusNotFound {
		t.Errorf("get after delete got status %d", recorder.Code)
	}
}

func TestHandler_Validation(t *testing.T) {
	useClock(t, monday)
	r := newTestRouter()

	valid := func() map[string]interface{} {
		return map[string]interface{}{
			"name":              "Reading",
			"targetDuration":    "01:00:00",
			"weeksCount":        1,
			"scheduledWeekdays": []string{"Monday"},
			"priority":          "Medium",
		}
	}

	var tests = []struct {
		name   string
		key    string
		value  interface{}
		status int
	}{
		{"valid", "", nil, http.StatusCreated},
		{"duplicate weekdays", "scheduledWeekdays", []string{"Monday", "Monday"}, http.StatusBadRequest},
		{"unknown weekday", "scheduledWeekdays", []string{"Funday"}, http.StatusBadRequest},
		{"no weekdays", "scheduledWeekdays", []string{}, http.StatusBadRequest},
		{"lowercase priority", "priority", "high", http.StatusBadRequest},
		{"zero weeks", "weeksCount", 0, http.StatusBadRequest},
		{"malformed duration", "targetDuration", "1:xx", http.StatusBadRequest},
		{"zero duration", "targetDuration", "0", http.StatusBadRequest},
		{"four fields", "targetDuration", "1:0:0:0", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := valid()
			if tt.key != "" {
				body[tt.key] = tt.value
			}

			recorder, _ := doRequest(t, r, http.MethodPost, "/v1/activities", body)
			if recorder.Code != tt.status {
				t.Errorf("got status %d, want %d: %s", recorder.Code, tt.status, recorder.Body.String())
			}
		})
	}

	recorder, _ := doRequest(t, r, http.MethodGet, "/v1/activities/000000000000000000000000/occurrences?date=01.01.2024", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("malformed date got status %d", recorder.Code)
	}

	recorder, _ = doRequest(t, r, http.MethodGet, "/v1/agenda?filter=Everything", nil)
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("unknown filter got status %d", recorder.Code)
	}
}

func TestHandler_DomainErrorStatus(t *testing.T) {
	handler := Handler{Logger: logger.Discard{}, ResponseManager: &communication.ResponseManager{Logger: logger.Discard{}}}

	var tests = []struct {
		err    error
		status int
	}{
		{&ActionError{ActivityID: "a", Index: -1, Action: ActionStart, Err: ErrNotScheduled}, http.StatusNotFound},
		{&ActionError{ActivityID: "a", Index: 0, Action: ActionStart, Err: ErrInvalidTransition}, http.StatusConflict},
		{ErrInvalidPriority, http.StatusBadRequest},
		{ErrOutOfRange, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrConcurrencyConflict, http.StatusConflict},
		{errors.New("database down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		recorder := httptest.NewRecorder()
		handler.respondWithDomainError(recorder, "failed", tt.err)

		if recorder.Code != tt.status {
			t.Errorf("respondWithDomainError(%v) got status %d, want %d", tt.err, recorder.Code, tt.status)
		}
	}
}
