package communication

import (
	"encoding/json"
	"net/http"

	"github.com/timeliness-app/activity-tracker/pkg/logger"
)

// ResponseManager handles errors that have to be returned to the user
type ResponseManager struct {
	Logger logger.Interface
}

// RespondWithError takes several arguments to return an error to the user and logs the error as well
func (r *ResponseManager) RespondWithError(writer http.ResponseWriter, status int, message string, err error) {
	r.RespondWithErrorDetails(writer, status, message, err, nil)
}

// RespondWithErrorDetails works like RespondWithError and adds details to the error object
func (r *ResponseManager) RespondWithErrorDetails(writer http.ResponseWriter, status int, message string, err error,
	details map[string]interface{}) {
	if status >= 500 {
		r.Logger.Error(message, err)
	}

	errorObject := map[string]interface{}{
		"message": message,
	}
	for key, value := range details {
		errorObject[key] = value
	}

	var response = map[string]interface{}{
		"status": status,
		"error":  errorObject,
	}

	if err != nil {
		response["err"] = err.Error()
	}

	binary, err := json.Marshal(response)
	if err != nil {
		r.Logger.Error("Problem while marshalling error response", err)
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	writer.WriteHeader(status)
	_, err = writer.Write(binary)
	if err != nil {
		r.Logger.Error("Problem writing error response", err)
	}
}

// Respond takes an object and turns it into json and responds with it and a 200 HTTP status
func (r *ResponseManager) Respond(writer http.ResponseWriter, i interface{}) {
	r.RespondWithStatus(writer, i, http.StatusOK)
}

// RespondWithStatus responds with a specific status code
func (r *ResponseManager) RespondWithStatus(writer http.ResponseWriter, i interface{}, status int) {
	binary, err := json.Marshal(i)
	if err != nil {
		r.RespondWithError(writer, http.StatusInternalServerError,
			"Problem while marshalling response into json", err)
		return
	}

	writer.WriteHeader(status)
	_, err = writer.Write(binary)
	if err != nil {
		r.Logger.Error("Problem writing response", err)
		return
	}
}

// RespondWithNoContent sends a no content status code
func (r *ResponseManager) RespondWithNoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}
