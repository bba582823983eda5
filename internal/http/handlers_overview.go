package http

import "net/http"

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r, "month", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	ov, err := s.svc.Overview.Month(r.Context(), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOverviewResponse(ov))
}
