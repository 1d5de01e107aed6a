// Package api serves bridge requests over HTTP. Every response body is an
// envelope.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"mercabridge/internal/catalog"
	"mercabridge/internal/envelope"
)

var errInvalidLimit = errors.New("limit must be an integer")

// Service is the part of catalog.Service the handlers need.
type Service interface {
	Handle(ctx context.Context, req catalog.Request) envelope.Envelope
}

type Options struct {
	ExposeDetails bool
	// Metrics is mounted on /metrics when set.
	Metrics http.Handler
}

type handler struct {
	svc  Service
	log  zerolog.Logger
	opts Options
}

// NewRouter returns the server's root handler with request ids, access logs
// and panic recovery applied.
func NewRouter(svc Service, log zerolog.Logger, opts Options) http.Handler {
	h := &handler{svc: svc, log: log, opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.get(h.health))
	mux.HandleFunc("/search", h.get(h.action(catalog.ActionSearch, "q", catalog.ErrMissingQuery)))
	mux.HandleFunc("/new", h.get(h.action(catalog.ActionNew, "", nil)))
	mux.HandleFunc("/detail", h.get(h.action(catalog.ActionDetail, "id", catalog.ErrMissingID)))
	mux.HandleFunc("/prices", h.get(h.action(catalog.ActionHistory, "id", catalog.ErrMissingID)))
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}
	mux.HandleFunc("/", h.notFound)

	return h.requestID(h.accessLog(h.recovery(mux)))
}

func (h *handler) get(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			h.write(w, http.StatusMethodNotAllowed, envelope.Failure("method not allowed", ""))
			return
		}
		next(w, r)
	}
}

func (h *handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusNotFound, envelope.Failure("no route for "+r.URL.Path, ""))
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	h.write(w, http.StatusOK, envelope.Success(map[string]string{"status": "ok"}))
}

// action answers one bridge action. param names the query parameter that
// carries Request.Query; when set it is required and missing is reported.
func (h *handler) action(action catalog.Action, param string, missing error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req := catalog.Request{Action: action, Postcode: q.Get("postcode")}

		if param != "" {
			req.Query = strings.TrimSpace(q.Get(param))
			if req.Query == "" {
				h.write(w, http.StatusBadRequest, envelope.Failure(missing.Error(), ""))
				return
			}
		}

		if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				h.write(w, http.StatusBadRequest, envelope.Failure(errInvalidLimit.Error(), ""))
				return
			}
			req.Limit = n
		}

		h.write(w, http.StatusOK, h.svc.Handle(r.Context(), req))
	}
}

func (h *handler) write(w http.ResponseWriter, status int, env envelope.Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(env.Public(h.opts.ExposeDetails).MarshalIndent()); err != nil {
		h.log.Warn().Err(err).Msg("writing response failed")
	}
}
