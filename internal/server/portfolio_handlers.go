package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"portfolioAnalyzer/internal/finance"
)

type createPortfolioRequest struct {
	Name   string                  `json:"name"`
	Assets []finance.SelectedAsset `json:"assets"`
}

type analyzePortfolioRequest struct {
	DateRange finance.DateRange `json:"dateRange"`
}

func userID(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get(userIDHeader)); u != "" {
		return u
	}
	return anonymousUser
}

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.UserPortfolios(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		s.writeError(w, fmt.Errorf("%w: name is required", errBadRequest))
		return
	}
	if err := finance.ValidateSelection(req.Assets); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.store.SavePortfolio(r.Context(), userID(r), req.Name, req.Assets)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Portfolio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePortfolio(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnalyzePortfolio(w http.ResponseWriter, r *http.Request) {
	var req analyzePortfolioRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.store.Portfolio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp, ok := s.runAnalysis(w, r, p.Assets, req.DateRange)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}
