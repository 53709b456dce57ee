package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"investa/domain"
	"investa/domain/entities"
	"investa/domain/services"

	"github.com/gorilla/mux"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// pathID parses the {id} route variable
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

// decodeBody reads a JSON body into v. An empty body is accepted when optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	if err != nil {
		return domain.NewValidationError("body", err.Error())
	}
	return nil
}

// authorize checks the caller against op for the target investor and writes the failure
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, op services.Operation, target int64) (*entities.Identity, bool) {
	identity := identityFrom(r.Context())
	if err := s.deps.Gate.Authorize(identity, op, target); err != nil {
		writeError(w, err)
		return nil, false
	}
	return identity, true
}

func queryInt64(r *http.Request, key string) (*int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError(key, "must be an integer")
	}
	return &v, nil
}

func historyLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, domain.NewValidationError("limit", "must be a positive integer")
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	return limit, nil
}

func requestFilter(r *http.Request) (entities.RequestFilter, error) {
	q := r.URL.Query()
	filter := entities.RequestFilter{
		Kind:  entities.RequestKind(q.Get("kind")),
		State: entities.RequestState(q.Get("state")),
	}
	if filter.Kind != "" && !filter.Kind.IsValid() {
		return filter, domain.NewValidationError("kind", "unknown request kind")
	}
	if filter.State != "" && !filter.State.IsValid() {
		return filter, domain.NewValidationError("state", "unknown request state")
	}
	return filter, nil
}
