package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"budget/internal/core"
	applog "budget/internal/log"
)

func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceTime(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	results, err := s.svc.Installments.ProgressAll(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]installmentResponse, 0, len(results))
	for _, ip := range results {
		out = append(out, newInstallmentResponse(ip))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetInstallment(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceTime(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	ip, err := s.svc.Installments.Progress(r.Context(), mux.Vars(r)["id"], ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newInstallmentResponse(ip))
}

func (s *Server) handleCreateInstallment(w http.ResponseWriter, r *http.Request) {
	ref, err := referenceTime(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req installmentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := req.toDomain()
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.svc.Installments.Create(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applog.NewStructuredLogger(applog.FromContext(r.Context())).LogInstallmentCreated(r.Context(),
		created.ID,
		created.Description,
		created.TotalAmount.Decimal.String(),
		created.InstallmentCount,
		created.StartMonth.String())

	ip, err := s.svc.Installments.Progress(r.Context(), created.ID, ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/installments/"+created.ID)
	writeJSON(w, http.StatusCreated, newInstallmentResponse(ip))
}

func (s *Server) handleDeleteInstallment(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Installments.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInstallmentTotal(w http.ResponseWriter, r *http.Request) {
	ym, err := monthParam(r, "month", s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}

	total, err := s.svc.Installments.MonthTotal(r.Context(), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"month": ym.String(),
		"total": core.MoneyFromDecimal(total).String(),
	})
}
