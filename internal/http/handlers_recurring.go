package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Recurring.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]recurringResponse, 0, len(list))
	for _, rp := range list {
		out = append(out, newRecurringResponse(rp))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rp, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.svc.Recurring.Create(r.Context(), rp)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/recurring/"+strconv.FormatInt(created.ID, 10))
	writeJSON(w, http.StatusCreated, newRecurringResponse(created))
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, &badRequestError{"invalid recurring payment id"})
		return
	}
	if err := s.svc.Recurring.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
