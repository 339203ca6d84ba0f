// ABOUTME: Request body decoding for account and record endpoints.
// ABOUTME: Accepts the loose shapes web forms send (numbers as strings, empty dates).
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/harperreed/medrec/internal/models"
)

const maxBodyBytes = 1 << 20

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// recordRequest is the JSON body of create and update.
type recordRequest struct {
	PatientName   string   `json:"patient_name"`
	Age           looseInt `json:"age"`
	BloodPressure *string  `json:"blood_pressure"`
	Cholesterol   looseInt `json:"cholesterol"`
	Notes         *string  `json:"notes"`
	Date          *string  `json:"date"`
}

// looseInt accepts a JSON number, a numeric string, "" or null.
type looseInt struct {
	Value *int
}

func (l *looseInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		raw = string(data)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("not an integer: %q", raw)
	}
	l.Value = &n
	return nil
}

// fields converts the request into RecordFields. A bad date or number is a
// validation error.
func (req recordRequest) fields() (models.RecordFields, error) {
	f := models.RecordFields{
		PatientName:   req.PatientName,
		BloodPressure: req.BloodPressure,
		Cholesterol:   req.Cholesterol.Value,
		Notes:         req.Notes,
	}
	if req.Age.Value != nil {
		f.Age = *req.Age.Value
	}
	if req.Date != nil && strings.TrimSpace(*req.Date) != "" {
		d, err := models.ParseDate(*req.Date)
		if err != nil {
			return f, &models.ValidationError{Field: "date", Message: "Date must be YYYY-MM-DD"}
		}
		f.Date = &d
	}
	return f, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return &models.ValidationError{Field: "body", Message: "Invalid request body"}
	}
	return nil
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (models.RecordFields, error) {
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return models.RecordFields{}, err
	}
	return req.fields()
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, &models.ValidationError{Field: "id", Message: "Invalid record id"}
	}
	return id, nil
}
