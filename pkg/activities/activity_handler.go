package activities

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/timeliness-app/activity-tracker/pkg/communication"
	"github.com/timeliness-app/activity-tracker/pkg/date"
	"github.com/timeliness-app/activity-tracker/pkg/logger"
)

// Handler handles all activity related API calls
type Handler struct {
	Service         *SchedulingService
	Logger          logger.Interface
	ResponseManager *communication.ResponseManager
}

// actionRequest is the body of the occurrence action routes
type actionRequest struct {
	Action Action `json:"action"`
}

// occurrenceResponse is returned by the occurrence routes
type occurrenceResponse struct {
	ActivityID string       `json:"activityId"`
	Index      int          `json:"index"`
	Date       string       `json:"date,omitempty"`
	State      State        `json:"state"`
	TimeSpent  date.Seconds `json:"timeSpent"`
	Occurrence *Occurrence  `json:"occurrence"`
}

// activityDetail is an Activity with its calendar
type activityDetail struct {
	*Activity
	Schedule []ScheduledOccurrence `json:"schedule"`
}

// RegisterRoutes adds all activity routes to the router
func (handler *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/v1/activities", handler.ActivityAdd).Methods(http.MethodPost)
	r.HandleFunc("/v1/activities", handler.GetAllActivities).Methods(http.MethodGet)
	r.HandleFunc("/v1/activities/{activityID}", handler.GetActivity).Methods(http.MethodGet)
	r.HandleFunc("/v1/activities/{activityID}", handler.DeleteActivity).Methods(http.MethodDelete)
	r.HandleFunc("/v1/activities/{activityID}/priority", handler.PriorityUpdate).Methods(http.MethodPatch)
	r.HandleFunc("/v1/activities/{activityID}/occurrences", handler.ResolveOccurrence).Methods(http.MethodGet)
	r.HandleFunc("/v1/activities/{activityID}/occurrences", handler.OccurrenceActionOnDate).Methods(http.MethodPut)
	r.HandleFunc("/v1/activities/{activityID}/occurrences/{index}", handler.OccurrenceAction).Methods(http.MethodPut)
	r.HandleFunc("/v1/agenda", handler.GetAgenda).Methods(http.MethodGet)
}

// ActivityAdd is the route for adding an activity
func (handler *Handler) ActivityAdd(writer http.ResponseWriter, request *http.Request) {
	create := ActivityCreate{}

	err := json.NewDecoder(request.Body).Decode(&create)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	err = create.Validate()
	if err != nil {
		handler.respondWithValidationError(writer, err)
		return
	}

	activity, err := handler.Service.CreateActivity(request.Context(), create)
	if err != nil {
		handler.respondWithDomainError(writer, "Could not create activity", err)
		return
	}

	handler.ResponseManager.RespondWithStatus(writer, activity, http.StatusCreated)
}

// GetAllActivities lists all activities ordered by priority
func (handler *Handler) GetAllActivities(writer http.ResponseWriter, request *http.Request) {
	activities, err := handler.Service.ListActivities(request.Context())
	if err != nil {
		handler.respondWithDomainError(writer, "Could not list activities", err)
		return
	}

	handler.ResponseManager.Respond(writer, map[string]interface{}{
		"results": activities,
		"count":   len(activities),
	})
}

// GetActivity is the route for a single activity with its schedule
func (handler *Handler) GetActivity(writer http.ResponseWriter, request *http.Request) {
	activityID := mux.Vars(request)["activityID"]

	activity, err := handler.Service.GetActivity(request.Context(), activityID)
	if err != nil {
		handler.respondWithDomainError(writer, "Couldn't find activity", err)
		return
	}

	schedule, err := activity.Schedule()
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError,
			"Could not compute schedule", err)
		return
	}

	handler.ResponseManager.Respond(writer, activityDetail{Activity: activity, Schedule: schedule})
}

// DeleteActivity deletes an activity with all of its occurrences
func (handler *Handler) DeleteActivity(writer http.ResponseWriter, request *http.Request) {
	activityID := mux.Vars(request)["activityID"]

	err := handler.Service.DeleteActivity(request.Context(), activityID)
	if err != nil {
		handler.respondWithDomainError(writer, "Could not delete activity", err)
		return
	}

	handler.ResponseManager.RespondWithNoContent(writer)
}

// PriorityUpdate changes the priority of an activity
func (handler *Handler) PriorityUpdate(writer http.ResponseWriter, request *http.Request) {
	activityID := mux.Vars(request)["activityID"]
	update := PriorityUpdate{}

	err := json.NewDecoder(request.Body).Decode(&update)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return
	}

	err = update.Validate()
	if err != nil {
		handler.respondWithValidationError(writer, err)
		return
	}

	activity, err := handler.Service.UpdatePriority(request.Context(), activityID, update.Priority)
	if err != nil {
		handler.respondWithDomainError(writer, "Could not update priority", err)
		return
	}

	handler.ResponseManager.Respond(writer, activity)
}

// ResolveOccurrence returns the occurrence of the date query parameter
func (handler *Handler) ResolveOccurrence(writer http.ResponseWriter, request *http.Request) {
	activityID := mux.Vars(request)["activityID"]

	day, ok := handler.parseDateQuery(writer, request)
	if !ok {
		return
	}

	activity, err := handler.Service.GetActivity(request.Context(), activityID)
	if err != nil {
		handler.respondWithDomainError(writer, "Couldn't find activity", err)
		return
	}

	index, err := activity.OccurrenceIndex(day)
	if err != nil {
		handler.respondWithDomainError(writer, "Date is not scheduled", err)
		return
	}

	if err := activity.CheckIndex(index); err != nil {
		handler.respondWithDomainError(writer, "Occurrence is missing", err)
		return
	}

	occurrence := activity.Occurrences[index]
	handler.ResponseManager.Respond(writer, newOccurrenceResponse(activityID, index, day, &occurrence))
}

// OccurrenceAction applies an action to the occurrence at the index path variable
func (handler *Handler) OccurrenceAction(writer http.ResponseWriter, request *http.Request) {
	activityID := mux.Vars(request)["activityID"]
	index, err := strconv.Atoi(mux.Vars(request)["index"])
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Index is not a number", err)
		return
	}

	action, ok := handler.parseAction(writer, request)
	if !ok {
		return
	}

	occurrence, err := handler.Service.ApplyAction(request.Context(), activityID, index, action)
	if err != nil {
		handler.respondWithDomainError(writer, "Could not apply "+string(action), err)
		return
	}

	handler.ResponseManager.Respond(writer, newOccurrenceResponse(activityID, index, time.Time{}, occurrence))
}

// OccurrenceActionOnDate applies an action to the occurrence of the date query parameter
func (handler *Handler) OccurrenceActionOnDate(writer http.ResponseWriter, request *http.Request) {
	activityID := mux.Vars(request)["activityID"]

	day, ok := handler.parseDateQuery(writer, request)
	if !ok {
		return
	}

	action, ok := handler.parseAction(writer, request)
	if !ok {
		return
	}

	index, occurrence, err := handler.Service.ApplyActionOnDate(request.Context(), activityID, day, action)
	if err != nil {
		handler.respondWithDomainError(writer, "Could not apply "+string(action), err)
		return
	}

	handler.ResponseManager.Respond(writer, newOccurrenceResponse(activityID, index, day, occurrence))
}

// GetAgenda is the overview of a single day
func (handler *Handler) GetAgenda(writer http.ResponseWriter, request *http.Request) {
	day := date.StartOfDay(now())
	if request.URL.Query().Get("date") != "" {
		var ok bool
		day, ok = handler.parseDateQuery(writer, request)
		if !ok {
			return
		}
	}

	filter, err := ParseAgendaFilter(request.URL.Query().Get("filter"))
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Unknown filter", err)
		return
	}

	agenda, err := handler.Service.Agenda(request.Context(), day, filter)
	if err != nil {
		handler.respondWithDomainError(writer, "Could not build agenda", err)
		return
	}

	handler.ResponseManager.Respond(writer, agenda)
}

func newOccurrenceResponse(activityID string, index int, day time.Time, occurrence *Occurrence) occurrenceResponse {
	response := occurrenceResponse{
		ActivityID: activityID,
		Index:      index,
		State:      occurrence.State(),
		TimeSpent:  occurrence.TimeSpentAt(now()),
		Occurrence: occurrence,
	}

	if !day.IsZero() {
		response.Date = day.Format(date.DayLayout)
	}

	return response
}

func (handler *Handler) parseDateQuery(writer http.ResponseWriter, request *http.Request) (time.Time, bool) {
	query := request.URL.Query().Get("date")
	if query == "" {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Missing date", nil)
		return time.Time{}, false
	}

	day, err := date.ParseDay(query)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Date must be YYYY-MM-DD", err)
		return time.Time{}, false
	}

	return day, true
}

func (handler *Handler) parseAction(writer http.ResponseWriter, request *http.Request) (Action, bool) {
	body := actionRequest{}

	err := json.NewDecoder(request.Body).Decode(&body)
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Wrong format", err)
		return "", false
	}

	action, err := ParseAction(string(body.Action))
	if err != nil {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Unknown action", err)
		return "", false
	}

	return action, true
}

func (handler *Handler) respondWithValidationError(writer http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, validationErrors[0].Error(), validationErrors[0])
		return
	}

	handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, "Invalid payload", err)
}

// respondWithDomainError maps the sentinel errors of this package to HTTP statuses
func (handler *Handler) respondWithDomainError(writer http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, ErrConcurrencyConflict):
		handler.ResponseManager.RespondWithErrorDetails(writer, http.StatusConflict,
			"Activity was modified concurrently, try again", err, map[string]interface{}{"retryable": true})
	case errors.Is(err, ErrInvalidTransition):
		handler.ResponseManager.RespondWithError(writer, http.StatusConflict, message, err)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotScheduled):
		handler.ResponseManager.RespondWithError(writer, http.StatusNotFound, message, err)
	case errors.Is(err, ErrFormat), errors.Is(err, ErrUnknownAction), errors.Is(err, ErrOutOfRange),
		errors.Is(err, ErrInvalidPriority):
		handler.ResponseManager.RespondWithError(writer, http.StatusBadRequest, message, err)
	default:
		handler.ResponseManager.RespondWithError(writer, http.StatusInternalServerError, message, err)
	}
}
