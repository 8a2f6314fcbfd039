// Package api serves cached entity records over HTTP and pushes upsert
// events over WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"jediswap-analytics/internal/coordinator"
	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/observability"
	"jediswap-analytics/internal/search"
	"jediswap-analytics/internal/storage"
)

// DefaultBackgroundTimeout bounds an ensure started by a placeholder response.
const DefaultBackgroundTimeout = 60 * time.Second

// IDSearcher looks up ids upstream by free text.
type IDSearcher interface {
	SearchIDs(ctx context.Context, kind domain.EntityKind, text string, tokenIDs []string) ([]string, error)
}

// Server is the HTTP read API over a set of coordinators.
type Server struct {
	coords    map[domain.EntityKind]*coordinator.Coordinator
	searcher  IDSearcher
	hub       *Hub
	logger    *zap.Logger
	origins   []string
	periods   []domain.Period
	allowList []string
	limit     int
	bgTimeout time.Duration
	started   time.Time

	bg sync.WaitGroup
}

// Option configures Server.
type Option func(*Server)

// WithSearcher enables upstream search on /api/search.
func WithSearcher(s IDSearcher) Option {
	return func(srv *Server) {
		srv.searcher = s
	}
}

// WithLogger sets the server logger.
func WithLogger(l *zap.Logger) Option {
	return func(srv *Server) {
		if l != nil {
			srv.logger = l
		}
	}
}

// WithAllowedOrigins sets the CORS and WebSocket origin allow list.
func WithAllowedOrigins(origins []string) Option {
	return func(srv *Server) {
		srv.origins = origins
	}
}

// WithPeriods sets the periods fetched by background ensures.
func WithPeriods(periods []domain.Period) Option {
	return func(srv *Server) {
		if len(periods) > 0 {
			srv.periods = periods
		}
	}
}

// WithSearchOptions sets the token allow list and default result limit.
func WithSearchOptions(allowList []string, limit int) Option {
	return func(srv *Server) {
		srv.allowList = allowList
		srv.limit = limit
	}
}

// WithBackgroundTimeout bounds each background ensure.
func WithBackgroundTimeout(d time.Duration) Option {
	return func(srv *Server) {
		if d > 0 {
			srv.bgTimeout = d
		}
	}
}

// NewServer creates a server and subscribes its hub to every coordinator.
func NewServer(coords []*coordinator.Coordinator, opts ...Option) *Server {
	s := &Server{
		coords:    make(map[domain.EntityKind]*coordinator.Coordinator, len(coords)),
		logger:    zap.NewNop(),
		origins:   []string{"*"},
		periods:   domain.DefaultPeriods,
		limit:     20,
		bgTimeout: DefaultBackgroundTimeout,
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hub = NewHub(s.logger.Named("ws"), s.checkOrigin)
	for _, c := range coords {
		s.coords[c.Kind()] = c
		c.AddListener(s.hub.Notify)
	}
	return s
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routed HTTP handler with CORS applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/status", s.instrument("status", s.handleStatus)).Methods(http.MethodGet)
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	r.Handle("/ws", s.hub).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", s.instrument("search", s.handleSearch)).Methods(http.MethodGet)
	api.HandleFunc("/{kinds}", s.instrument("list", s.handleList)).Methods(http.MethodGet)
	api.HandleFunc("/{kinds}/ensure", s.instrument("ensure", s.handleEnsure)).Methods(http.MethodPost)
	api.HandleFunc("/{kinds}/{id}", s.instrument("get", s.handleGet)).Methods(http.MethodGet)

	return cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)
}

// Wait blocks until every background ensure has finished.
func (s *Server) Wait() {
	s.bg.Wait()
}

// Close disconnects WebSocket clients and waits for background ensures.
func (s *Server) Close() {
	s.hub.Close()
	s.bg.Wait()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.origins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// coordinatorFor resolves the {kinds} path variable.
func (s *Server) coordinatorFor(w http.ResponseWriter, r *http.Request) (*coordinator.Coordinator, bool) {
	kind, err := domain.ParseKind(mux.Vars(r)["kinds"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	c, ok := s.coords[kind]
	if !ok {
		writeError(w, http.StatusNotFound, "kind not served: "+kind.String())
		return nil, false
	}
	return c, true
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	c, ok := s.coordinatorFor(w, r)
	if !ok {
		return
	}
	records := c.Reader().List()
	if records == nil {
		records = []*domain.EntityRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Placeholder is returned for an id that is not tracked yet.
type Placeholder struct {
	ID      string            `json:"id"`
	Kind    domain.EntityKind `json:"kind"`
	Pending bool              `json:"pending"`
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := s.coordinatorFor(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if !domain.IsValidID(id) {
		writeError(w, http.StatusBadRequest, "invalid id "+strconv.Quote(id)+": want 0x-prefixed hex")
		return
	}

	if rec, ok := c.Reader().Get(id); ok {
		writeJSON(w, http.StatusOK, rec)
		return
	}

	s.ensureInBackground(c, []string{id})
	writeJSON(w, http.StatusAccepted, Placeholder{ID: id, Kind: c.Kind(), Pending: true})
}

// ensureInBackground fetches ids on a context detached from the request so
// the result is cached even if the client goes away.
func (s *Server) ensureInBackground(c *coordinator.Coordinator, ids []string) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.bgTimeout)
		defer cancel()

		if err := c.Ensure(ctx, ids, s.periods); err != nil {
			s.logger.Warn("background ensure failed",
				zap.String("kind", c.Kind().String()),
				zap.Strings("ids", ids),
				zap.Error(err),
			)
		}
	}()
}

// EnsureRequest is the body of POST /api/{kinds}/ensure.
type EnsureRequest struct {
	IDs     []string `json:"ids"`
	Periods []string `json:"periods"`
}

// EnsureResponse lists the records now tracked and the ids still missing.
type EnsureResponse struct {
	Records []*domain.EntityRecord `json:"records"`
	Missing []string               `json:"missing"`
}

func (s *Server) handleEnsure(w http.ResponseWriter, r *http.Request) {
	c, ok := s.coordinatorFor(w, r)
	if !ok {
		return
	}

	var req EnsureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}
	for _, id := range req.IDs {
		if !domain.IsValidID(id) {
			writeError(w, http.StatusBadRequest, "invalid id "+strconv.Quote(id)+": want 0x-prefixed hex")
			return
		}
	}
	periods, err := domain.ParsePeriods(req.Periods)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := c.Ensure(r.Context(), req.IDs, periods); err != nil {
		if errors.Is(err, storage.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Warn("ensure failed", zap.String("kind", c.Kind().String()), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := EnsureResponse{Records: []*domain.EntityRecord{}, Missing: []string{}}
	for _, id := range req.IDs {
		if rec, ok := c.Reader().Get(id); ok {
			resp.Records = append(resp.Records, rec)
		} else {
			resp.Missing = append(resp.Missing, id)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// SearchResponse groups search results by kind.
type SearchResponse struct {
	Query  string                 `json:"query"`
	Tokens []*domain.EntityRecord `json:"tokens"`
	Pools  []*domain.EntityRecord `json:"pools"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	limit := s.limit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	tokens := s.coords[domain.KindToken]
	pools := s.coords[domain.KindPool]

	var tokenHits, poolHits []*domain.EntityRecord
	if s.searcher != nil {
		tokenHits, poolHits = s.searchUpstream(r.Context(), q, tokens, pools)
	}

	opts := []search.Option{search.WithAllowList(s.allowList), search.WithLimit(limit)}
	resp := SearchResponse{Query: q, Tokens: []*domain.EntityRecord{}, Pools: []*domain.EntityRecord{}}
	if tokens != nil {
		resp.Tokens = append(resp.Tokens, search.Search(q, tokens.Reader().List(), tokenHits, opts...)...)
	}
	if pools != nil {
		resp.Pools = append(resp.Pools, search.Search(q, pools.Reader().List(), poolHits, opts...)...)
	}
	writeJSON(w, http.StatusOK, resp)
}

// searchUpstream resolves matching ids upstream and ensures them so they
// can be ranked with cached records. Failures only narrow the result.
func (s *Server) searchUpstream(ctx context.Context, q string, tokens, pools *coordinator.Coordinator) (tokenHits, poolHits []*domain.EntityRecord) {
	if tokens == nil || search.ParseQuery(q).Empty() {
		return nil, nil
	}

	tokenIDs, err := s.searcher.SearchIDs(ctx, domain.KindToken, q, nil)
	if err != nil {
		s.logger.Warn("upstream token search failed", zap.String("query", q), zap.Error(err))
		return nil, nil
	}
	tokenHits = s.ensureAndCollect(ctx, tokens, tokenIDs)

	if pools == nil {
		return tokenHits, nil
	}
	poolIDs, err := s.searcher.SearchIDs(ctx, domain.KindPool, q, tokenIDs)
	if err != nil {
		s.logger.Warn("upstream pool search failed", zap.String("query", q), zap.Error(err))
		return tokenHits, nil
	}
	return tokenHits, s.ensureAndCollect(ctx, pools, poolIDs)
}

func (s *Server) ensureAndCollect(ctx context.Context, c *coordinator.Coordinator, ids []string) []*domain.EntityRecord {
	if len(ids) == 0 {
		return nil
	}
	if err := c.Ensure(ctx, ids, s.periods); err != nil {
		s.logger.Warn("ensure search results failed", zap.String("kind", c.Kind().String()), zap.Error(err))
	}
	var out []*domain.EntityRecord
	for _, id := range ids {
		if rec, ok := c.Reader().Get(id); ok {
			out = append(out, rec)
		}
	}
	return out
}

// StatusResponse is the JSON response for /status.
type StatusResponse struct {
	Status    string         `json:"status"`
	Uptime    string         `json:"uptime"`
	StartedAt time.Time      `json:"started_at"`
	Entries   map[string]int `json:"entries"`
	WSClients int            `json:"ws_clients"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:    "running",
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		StartedAt: s.started,
		Entries:   make(map[string]int, len(s.coords)),
		WSClients: s.hub.ClientCount(),
	}
	for kind, c := range s.coords {
		resp.Entries[kind.String()] = c.Reader().Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		observability.RecordHTTPRequest(route, strconv.Itoa(rec.code))
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
