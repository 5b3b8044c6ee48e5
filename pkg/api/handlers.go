// Copyright 2026 © The convo Authors
// SPDX-License-Identifier: Apache-2.0
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmolins/convo/pkg/errors"
	"github.com/dmolins/convo/pkg/news"
)

const (
	defaultSessionID = "default"
	maxNewsLimit     = 50
)

type chatRequest struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Output string `json:"output"`
}

// articlesResponse is the envelope on both news endpoints. Articles is
// always a JSON array, never null.
type articlesResponse struct {
	Articles []news.Article `json:"articles"`
}

func newArticlesResponse(articles []news.Article) articlesResponse {
	if articles == nil {
		articles = []news.Article{}
	}
	return articlesResponse{Articles: articles}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input must not be empty")
		return
	}
	if req.SessionID == "" {
		req.SessionID = defaultSessionID
	}

	output, err := s.engine.Turn(r.Context(), req.SessionID, req.Input)
	if err != nil {
		writeTypedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Output: output})
}

// handleWeatherCurrent reports unresolved locations and upstream failures as
// 400: the caller supplied a location we could not turn into a report.
func (s *Server) handleWeatherCurrent(w http.ResponseWriter, r *http.Request) {
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		writeError(w, http.StatusBadRequest, "location query parameter is required")
		return
	}

	report, err := s.weather.CurrentByLocation(r.Context(), location)
	if err != nil {
		status := http.StatusInternalServerError
		if ce := errors.AsError(err); ce != nil &&
			(ce.Code == errors.CodeNotFound || ce.Code == errors.CodeProvider) {
			status = http.StatusBadRequest
		}
		writeError(w, status, detailOf(err))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleNewsSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q query parameter is required")
		return
	}

	opts := news.SearchOptions{
		Language: r.URL.Query().Get("language"),
		FromDate: r.URL.Query().Get("from_date"),
		ToDate:   r.URL.Query().Get("to_date"),
		Limit:    parseLimit(r.URL.Query().Get("limit")),
	}

	articles, err := s.news.Search(r.Context(), q, opts)
	if err != nil {
		writeTypedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newArticlesResponse(articles))
}

func (s *Server) handleNewsTop(w http.ResponseWriter, r *http.Request) {
	opts := news.HeadlineOptions{
		Country:  r.URL.Query().Get("country"),
		Category: r.URL.Query().Get("category"),
		Language: r.URL.Query().Get("language"),
		Limit:    parseLimit(r.URL.Query().Get("limit")),
	}

	articles, err := s.news.TopHeadlines(r.Context(), opts)
	if err != nil {
		writeTypedError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newArticlesResponse(articles))
}

// parseLimit clamps the limit to [1, maxNewsLimit], defaulting when absent
// or unparseable.
func parseLimit(raw string) int {
	if raw == "" {
		return news.DefaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return news.DefaultLimit
	}
	if n > maxNewsLimit {
		return maxNewsLimit
	}
	return n
}

func (s *Server) handleRedirectDocs(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/docs", http.StatusTemporaryRedirect)
}

const docsPage = `<!DOCTYPE html>
<html>
<head><title>convo API</title></head>
<body>
<h1>convo API</h1>
<ul>
<li><code>GET /healthz</code> &mdash; liveness probe</li>
<li><code>POST /chat</code> &mdash; {"input": "...", "session_id": "..."} &rarr; {"output": "..."}</li>
<li><code>GET /weather/current?location=...</code> &mdash; current conditions</li>
<li><code>GET /news/search?q=...&amp;language=&amp;from_date=&amp;to_date=&amp;limit=</code> &mdash; keyword search</li>
<li><code>GET /news/top?country=&amp;category=&amp;language=&amp;limit=</code> &mdash; top headlines</li>
</ul>
</body>
</html>
`

func (s *Server) handleDocs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(docsPage))
}
