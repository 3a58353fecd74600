// Package handlers exposes the HTTP API. Every endpoint maps to one or two
// storage calls; side effects that leave the process (email) go through the
// injected mailer and never fail the request.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"library-api/internals/mailer"
	"library-api/internals/storage"
)

const searchCacheSize = 256

type API struct {
	store       *storage.Store
	mail        *mailer.Service
	log         *slog.Logger
	emailRe     *regexp.Regexp
	loanPeriod  time.Duration
	otpTTL      time.Duration
	now         func() time.Time
	searchCache *lru.Cache
}

type Options struct {
	Store       *storage.Store
	Mail        *mailer.Service
	Log         *slog.Logger
	EmailDomain string
	LoanPeriod  time.Duration
	OtpTTL      time.Duration

	// Now is the clock used for issue dates and OTP expiry; nil means
	// wall-clock time.
	Now func() time.Time
}

func New(opts Options) *API {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LoanPeriod == 0 {
		opts.LoanPeriod = 24 * time.Hour
	}
	if opts.OtpTTL == 0 {
		opts.OtpTTL = 5 * time.Minute
	}
	cache, err := lru.New(searchCacheSize)
	if err != nil {
		panic(err)
	}
	return &API{
		store:      opts.Store,
		mail:       opts.Mail,
		log:        opts.Log,
		emailRe:    regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@` + regexp.QuoteMeta(opts.EmailDomain) + `$`),
		loanPeriod: opts.LoanPeriod,
		otpTTL:     opts.OtpTTL,
		now:        opts.Now,

		searchCache: cache,
	}
}

// Router wires every endpoint onto a stdlib mux and wraps it with the
// request-logging middleware.
func (a *API) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /send-otp", a.handleSendOtp)
	mux.HandleFunc("POST /verify-otp", a.handleVerifyOtp)
	mux.HandleFunc("POST /register", a.handleRegister)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("GET /profile", a.handleProfile)

	mux.HandleFunc("GET /search", a.handleSearch)
	mux.HandleFunc("GET /book-details", a.handleBookDetails)
	mux.HandleFunc("GET /new-arrivals", a.handleNewArrivals)
	mux.HandleFunc("POST /recommendations", a.handleRecommendations)

	mux.HandleFunc("POST /add-to-cart", a.handleAddToCart)
	mux.HandleFunc("POST /return-book", a.handleReturnBook)
	mux.HandleFunc("POST /submit-review", a.handleSubmitReview)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	return a.requestLogger(mux)
}

// statusRecorder captures the status code written downstream.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		a.log.Info("request",
			"id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// form is a flat view of the request body. The frontend submits both
// url-encoded forms and JSON objects, so both are accepted everywhere.
type form map[string]string

func parseBody(r *http.Request) (form, error) {
	defer r.Body.Close()

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		f := form{}
		for k := range r.PostForm {
			f[k] = r.PostForm.Get(k)
		}
		return f, nil
	}

	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, err
	}
	f := form{}
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			f[k] = val
		case float64:
			f[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			f[k] = strconv.FormatBool(val)
		}
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
