package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/allyourbase/nexmoctl/internal/httputil"
	"github.com/allyourbase/nexmoctl/internal/msisdn"
	"github.com/allyourbase/nexmoctl/internal/nexmo"
	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	v, err := s.account.Balance(r.Context())
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"value": v})
}

func (s *Server) handlePricing(w http.ResponseWriter, r *http.Request) {
	country, ok := countryParam(w, r)
	if !ok {
		return
	}
	p, err := s.account.Pricing(r.Context(), country)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handleNumbersList(w http.ResponseWriter, r *http.Request) {
	nums, err := s.account.NumbersList(r.Context())
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nexmo.NumbersResponse{Count: len(nums), Numbers: nums})
}

func (s *Server) handleNumbersSearch(w http.ResponseWriter, r *http.Request) {
	country, ok := countryParam(w, r)
	if !ok {
		return
	}
	nums, err := s.account.NumbersSearch(r.Context(), country, r.URL.Query().Get("pattern"))
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nexmo.NumbersResponse{Count: len(nums), Numbers: nums})
}

func (s *Server) handleNumbersBuy(w http.ResponseWriter, r *http.Request) {
	s.numberAction(w, r, s.account.NumbersBuy)
}

func (s *Server) handleNumbersCancel(w http.ResponseWriter, r *http.Request) {
	s.numberAction(w, r, s.account.NumbersCancel)
}

func (s *Server) numberAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, country, number string) (bool, error)) {
	country, ok := countryParam(w, r)
	if !ok {
		return
	}
	number, err := msisdn.Normalize(country, chi.URLParam(r, "msisdn"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid msisdn for "+country)
		return
	}
	if _, err := action(r.Context(), country, number); err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"country": country,
		"msisdn":  number,
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := s.account.SearchMessage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, msg)
}

// handleMessagesSearch serves ?ids=a,b (ids may also repeat) or ?to=&date=.
func (s *Server) handleMessagesSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var ids []string
	for _, v := range q["ids"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	var (
		out *nexmo.MessagesResponse
		err error
	)
	switch {
	case len(ids) > 0:
		out, err = s.account.SearchMessages(r.Context(), ids)
	case q.Get("to") != "" && q.Get("date") != "":
		to, nerr := msisdn.Normalize("", q.Get("to"))
		if nerr != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid to: expected an international number")
			return
		}
		if _, perr := time.Parse(dateLayout, q.Get("date")); perr != nil {
			httputil.WriteError(w, http.StatusBadRequest, "invalid date: expected YYYY-MM-DD")
			return
		}
		out, err = s.account.SearchMessagesByRecipient(r.Context(), to, q.Get("date"))
	default:
		httputil.WriteError(w, http.StatusBadRequest, "either ids or both to and date are required")
		return
	}
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// countryParam reads and validates the {country} URL parameter.
func countryParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	country := strings.ToUpper(chi.URLParam(r, "country"))
	if !msisdn.ValidCountryCode(country) {
		httputil.WriteError(w, http.StatusBadRequest, "invalid country code: "+chi.URLParam(r, "country"))
		return "", false
	}
	return country, true
}

// writeUpstreamError maps client error kinds onto facade responses.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *nexmo.APIError
	switch {
	case errors.Is(err, nexmo.ErrNoData):
		httputil.WriteError(w, http.StatusNotFound, "no data")
	case errors.As(err, &apiErr):
		httputil.WriteErrorWithData(w, http.StatusBadGateway, "upstream error", map[string]any{
			"command":         apiErr.Command,
			"upstream_status": apiErr.StatusCode,
		})
	case errors.Is(err, nexmo.ErrTransport):
		s.logger.Warn("upstream unreachable", "path", r.URL.Path, "error", err)
		httputil.WriteError(w, http.StatusBadGateway, "upstream unreachable")
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
