package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/JonMunkholm/signup/internal/core"
	"github.com/JonMunkholm/signup/internal/logging"
	mw "github.com/JonMunkholm/signup/internal/web/middleware"
)

// errInvalidBody prefixes every body decoding failure so MapError reports VAL002.
var errInvalidBody = errors.New("invalid request body")

// handleCreateUser validates and inserts one user.
//
//	201 inserted rows
//	422 validation failed (fields)
//	409/403/400 store rejected the row (store error body)
//	502 the store could not be reached
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	rec, status, err := s.decodeUser(w, r)
	if err != nil {
		s.respondError(w, r, err, status)
		return
	}

	store := s.stores(mw.SessionFromContext(r.Context()))
	start := time.Now()
	res := s.writer.Create(r.Context(), store, rec)
	s.metrics.observe(res.Outcome, time.Since(start))

	switch res.Outcome {
	case core.OutcomeInserted:
		writeJSON(w, http.StatusCreated, res.Rows)

	case core.OutcomeInvalid:
		s.respondError(w, r, res.Err, http.StatusUnprocessableEntity)

	case core.OutcomeRejected:
		var se *core.StoreError
		if !errors.As(res.Err, &se) {
			s.respondError(w, r, res.Err, http.StatusBadRequest)
			return
		}
		status := rejectionStatus(se)
		logging.FromContext(r.Context()).Info("registration rejected",
			"status", status,
			"code", se.Code,
			"user_code", core.MapError(se).Code,
		)
		writeJSON(w, status, se)

	default:
		s.respondError(w, r, res.Err, http.StatusBadGateway)
	}
}

// handleValidateUser runs validation only. It never touches the store.
func (s *Server) handleValidateUser(w http.ResponseWriter, r *http.Request) {
	rec, status, err := s.decodeUser(w, r)
	if err != nil {
		s.respondError(w, r, err, status)
		return
	}

	if err := rec.Validate(); err != nil {
		s.respondError(w, r, err, http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// decodeUser reads a UserRecord from the request body. Values of the wrong
// JSON type are reported as field errors; anything else that prevents
// decoding is a body error.
func (s *Server) decodeUser(w http.ResponseWriter, r *http.Request) (core.UserRecord, int, error) {
	var rec core.UserRecord

	body := http.MaxBytesReader(w, r.Body, s.cfg.Register.MaxBodyBytes)
	err := json.NewDecoder(body).Decode(&rec)
	if err == nil {
		return rec, 0, nil
	}

	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &typeErr) && typeErr.Field != "":
		return rec, http.StatusUnprocessableEntity, &core.ValidationError{
			Fields: []core.FieldError{{Field: typeErr.Field, Message: expectedType(typeErr.Type)}},
		}
	case errors.As(err, &maxErr):
		return rec, http.StatusRequestEntityTooLarge,
			fmt.Errorf("%w: larger than %d bytes", errInvalidBody, maxErr.Limit)
	case errors.Is(err, io.EOF):
		return rec, http.StatusBadRequest, fmt.Errorf("%w: empty", errInvalidBody)
	default:
		return rec, http.StatusBadRequest, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
}

func expectedType(t reflect.Type) string {
	if t != nil && t.Kind() == reflect.String {
		return "Expected string"
	}
	return "Invalid type"
}
