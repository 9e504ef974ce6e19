package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"CapStore/internal/access"
	"CapStore/pkg/kit"
)

type Server struct {
	Registry *Registry
	Tokens   *access.TokenMaker
	Resolver *access.Resolver
	Log      *zap.Logger

	queryLimiter *kit.IPRateLimiter
}

type storeKey struct{}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := ping(ctx, s.Registry.Repository()); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/collections", s.list)
	r.Route("/collections/{name}", func(cr chi.Router) {
		cr.Use(s.withStore)
		cr.Get("/", s.get)
		cr.Get("/view", s.preview)

		writes := cr.With()
		if s.queryLimiter != nil {
			writes = cr.With(s.queryLimiter.Middleware)
		}
		writes.Put("/query", s.setQuery)
		writes.Put("/sort", s.setSort)

		if s.Tokens != nil {
			cr.With(access.AuthJWT(s.Tokens), access.RequireCatalogManager).Post("/reset", s.reset)
		}
	})

	if s.Tokens != nil && s.Resolver != nil {
		r.With(access.AuthJWT(s.Tokens)).Get("/me/destination", s.destination)
	}

	return r
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) withStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		st, ok := s.Registry.Get(name)
		if !ok {
			kit.WriteError(w, r, http.StatusNotFound, "unknown collection", map[string]any{"collection": name})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), storeKey{}, st)))
	})
}

func storeFrom(r *http.Request) *Store {
	st, _ := r.Context().Value(storeKey{}).(*Store)
	return st
}

type collectionSummary struct {
	Collection string        `json:"collection"`
	Categories []CategoryKey `json:"categories"`
	State      FetchState    `json:"state"`
}

type collectionResponse struct {
	Collection string     `json:"collection"`
	State      FetchState `json:"state"`
	HasFetched bool       `json:"has_fetched_once"`
	Error      string     `json:"error,omitempty"`
	Query      string     `json:"query"`
	Sort       SortValue  `json:"sort"`
	Total      int        `json:"total"`
	Sections   []Section  `json:"sections"`
}

func newCollectionResponse(c Collection, snap Snapshot) collectionResponse {
	return collectionResponse{
		Collection: snap.Collection,
		State:      snap.State,
		HasFetched: snap.Fetched,
		Error:      snap.Error,
		Query:      snap.Query,
		Sort:       snap.Sort,
		Total:      snap.Products.Count(),
		Sections:   c.Sections(snap.Products),
	}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	names := s.Registry.Names()
	out := make([]collectionSummary, 0, len(names))
	for _, n := range names {
		st, _ := s.Registry.Get(n)
		out = append(out, collectionSummary{
			Collection: n,
			Categories: st.Collection().Categories,
			State:      st.State(),
		})
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

// get is the page mount: it triggers the one-time fetch and returns the
// shopper's current view.
func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r)
	if !s.ensureFetched(w, r, st) {
		return
	}
	kit.WriteJSON(w, http.StatusOK, newCollectionResponse(st.Collection(), st.Snapshot()))
}

func (s *Server) ensureFetched(w http.ResponseWriter, r *http.Request, st *Store) bool {
	err := st.Fetch(r.Context())
	if err == nil {
		return true
	}

	var fe *FetchError
	switch {
	case errors.As(err, &fe):
		kit.WriteJSON(w, http.StatusBadGateway, newCollectionResponse(st.Collection(), st.Snapshot()))
	case errors.Is(err, ErrStoreReset):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "collection reset, retry", nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.logger().Error("fetch collection failed", zap.Error(err), zap.String("collection", st.Collection().Name))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
	return false
}

type queryReq struct {
	Query string `json:"query"`
}

func (s *Server) setQuery(w http.ResponseWriter, r *http.Request) {
	var req queryReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	st := storeFrom(r)
	st.SetSearchQuery(req.Query)
	kit.WriteJSON(w, http.StatusOK, newCollectionResponse(st.Collection(), st.Snapshot()))
}

type sortReq struct {
	Sort string `json:"sort"`
}

func (s *Server) setSort(w http.ResponseWriter, r *http.Request) {
	var req sortReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	st := storeFrom(r)
	st.SetSortBy(SortValue(req.Sort))
	kit.WriteJSON(w, http.StatusOK, newCollectionResponse(st.Collection(), st.Snapshot()))
}

type previewResponse struct {
	Collection string    `json:"collection"`
	Query      string    `json:"query"`
	Sort       SortValue `json:"sort"`
	Total      int       `json:"total"`
	Sections   []Section `json:"sections"`
}

// preview derives a one-off view from query parameters, leaving the shared
// session state alone.
func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r)
	if !s.ensureFetched(w, r, st) {
		return
	}

	q := r.URL.Query().Get("q")
	sort, _ := ParseSort(r.URL.Query().Get("sort"))

	view, err := st.Preview(q, sort)
	if err != nil {
		s.logger().Warn("preview failed", zap.Error(err), zap.String("collection", st.Collection().Name))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "collection not loaded", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, previewResponse{
		Collection: st.Collection().Name,
		Query:      q,
		Sort:       sort,
		Total:      view.Count(),
		Sections:   st.Collection().Sections(view),
	})
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r)
	if err := s.Registry.Invalidate(r.Context(), st.Collection().Name); err != nil {
		s.logger().Error("invalidate collection failed", zap.Error(err), zap.String("collection", st.Collection().Name))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type destinationResponse struct {
	Role        access.Role `json:"role"`
	Destination string      `json:"destination"`
}

func (s *Server) destination(w http.ResponseWriter, r *http.Request) {
	p, ok := access.PrincipalFromContext(r.Context())
	if !ok {
		kit.WriteError(w, r, http.StatusUnauthorized, "no principal", nil)
		return
	}

	dest, err := s.Resolver.Destination(r.Context(), p)
	switch {
	case err == nil:
	case errors.Is(err, access.ErrSwitchForbidden), errors.Is(err, access.ErrUnknownRole):
		kit.WriteError(w, r, http.StatusForbidden, err.Error(), nil)
		return
	case errors.Is(err, access.ErrNoVendorStore):
		kit.WriteError(w, r, http.StatusNotFound, "vendor store not found", nil)
		return
	default:
		s.logger().Error("resolve destination failed", zap.Error(err), zap.String("user_id", p.UserID))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	role, _ := p.Effective()
	kit.WriteJSON(w, http.StatusOK, destinationResponse{Role: role, Destination: dest})
}
