// Package http exposes the renderers over a JSON/multipart HTTP API.
package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mektycoon/mekforge/internal/catalog"
	"github.com/mektycoon/mekforge/pkg/blueprint"
	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/essence"
	"github.com/mektycoon/mekforge/pkg/imageio"
	"github.com/mektycoon/mekforge/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheHeader reports whether an image came from the render cache.
const CacheHeader = "X-Cache"

// DefaultMaxSourcePixels bounds the declared dimensions of an uploaded image.
const DefaultMaxSourcePixels = 40_000_000

const (
	defaultMaxUpload = 32 << 20
	lockTTL          = 2 * time.Minute
)

// Server holds the render defaults and the optional shared cache.
type Server struct {
	classic   blueprint.ClassicOptions
	technical blueprint.TechnicalOptions
	variants  []domain.Variation

	cache    ports.Cache
	locker   ports.DistributedLocker
	cacheTTL time.Duration

	logger    *slog.Logger
	registry  *prometheus.Registry
	metrics   *metrics
	maxUpload int64
	maxPixels int
	doc       *openapi3.T
	mux       *chi.Mux
}

type Option func(*Server)

// WithCache enables the render cache.
func WithCache(c ports.Cache, ttl time.Duration) Option {
	return func(s *Server) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

// WithLocker serializes renders of the same input across replicas.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *Server) {
		s.locker = l
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithCatalog sets the variations served by GET /v1/variations.
func WithCatalog(vars []domain.Variation) Option {
	return func(s *Server) {
		s.variants = vars
	}
}

// WithClassicDefaults sets the options form fields are applied on top of.
func WithClassicDefaults(o blueprint.ClassicOptions) Option {
	return func(s *Server) {
		s.classic = o
	}
}

// WithTechnicalDefaults sets the options form fields are applied on top of.
func WithTechnicalDefaults(o blueprint.TechnicalOptions) Option {
	return func(s *Server) {
		s.technical = o
	}
}

// WithRegistry registers the HTTP metrics on reg and serves it on /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// WithMaxUpload bounds multipart bodies, in bytes.
func WithMaxUpload(n int64) Option {
	return func(s *Server) {
		s.maxUpload = n
	}
}

// WithMaxSourcePixels rejects uploads declaring more than n pixels.
func WithMaxSourcePixels(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxPixels = n
		}
	}
}

// New validates the API document and builds the router.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		classic:   blueprint.DefaultClassicOptions(),
		technical: blueprint.DefaultTechnicalOptions(),
		logger:    slog.Default(),
		maxUpload: defaultMaxUpload,
		maxPixels: DefaultMaxSourcePixels,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	doc, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	s.doc = doc
	s.metrics = newMetrics(s.registry)
	s.mux = s.routes()
	return s, nil
}

// NewHandler is New followed by Handler.
func NewHandler(opts ...Option) (http.Handler, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return s.Handler(), nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return enableCORS(s.mux) }

// Routes exposes the router, e.g. for chi.Walk.
func (s *Server) Routes() chi.Routes { return s.mux }

// Doc returns the validated API document.
func (s *Server) Doc() *openapi3.T { return s.doc }

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.instrument)

	r.Get("/healthz", s.health)
	r.Get("/openapi.yaml", s.openAPI)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/variations", s.listVariations)
		r.Post("/blueprints/classic", s.renderClassic)
		r.Post("/blueprints/technical", s.renderTechnical)
		r.Post("/essences", s.renderEssence)
	})
	return r
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok"}
	status := http.StatusOK
	if p, ok := s.cache.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			resp["status"] = "degraded"
			resp["cache"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp["cache"] = "ok"
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) openAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(rawSpec)
}

func (s *Server) listVariations(w http.ResponseWriter, r *http.Request) {
	vars := s.variants
	if q := r.URL.Query().Get("type"); q != "" {
		t, err := domain.ParseVariationType(q)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, err)
			return
		}
		vars = catalog.Filter(vars, t)
	}
	if vars == nil {
		vars = []domain.Variation{}
	}
	writeJSON(w, http.StatusOK, vars)
}

func (s *Server) renderClassic(w http.ResponseWriter, r *http.Request) {
	opts := s.classic
	src, format, ok := s.readUpload(w, r, &opts)
	if !ok {
		return
	}
	renderer, err := blueprint.NewClassic(opts)
	if err == nil {
		err = s.checkForm("ClassicForm", format, opts)
	}
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	s.serveImage(w, r, cacheKey("classic", format, opts, src.raw), format, func(ctx context.Context) (image.Image, error) {
		return renderer.Render(ctx, src.img)
	})
}

func (s *Server) renderTechnical(w http.ResponseWriter, r *http.Request) {
	opts := s.technical
	src, format, ok := s.readUpload(w, r, &opts)
	if !ok {
		return
	}
	if err := opts.SanitizeLabels(); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	renderer, err := blueprint.NewTechnical(opts)
	if err == nil {
		err = s.checkForm("TechnicalForm", format, opts)
	}
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	s.serveImage(w, r, cacheKey("technical", format, opts, src.raw), format, func(ctx context.Context) (image.Image, error) {
		return renderer.Render(ctx, src.img)
	})
}

// EssenceRequest is the body of POST /v1/essences.
type EssenceRequest struct {
	Name   string `json:"name" mapstructure:"name"`
	Type   string `json:"type" mapstructure:"type"`
	Size   int    `json:"size,omitempty" mapstructure:"size"`
	Format string `json:"format,omitempty" mapstructure:"format"`
}

func (s *Server) renderEssence(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&raw); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := validateSchema(s.doc, "EssenceRequest", raw); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	req := EssenceRequest{Size: essence.DefaultSize, Format: string(imageio.FormatPNG)}
	if err := decode(raw, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	t, err := domain.ParseVariationType(req.Type)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if req.Name, err = domain.SanitizeLabel(req.Name); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	format, err := imageio.ParseFormat(req.Format)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	gen := essence.NewGenerator(req.Size)
	s.serveImage(w, r, cacheKey("essence", format, req, nil), format, func(ctx context.Context) (image.Image, error) {
		return gen.Render(req.Name, t)
	})
}

type upload struct {
	raw []byte
	img image.Image
}

// readUpload parses the multipart form, decodes the image field and applies
// the remaining fields on top of opts. It writes the error response itself.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, opts any) (*upload, imageio.Format, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("invalid multipart body: %w", err))
		return nil, "", false
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("missing image field: %w", err))
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return nil, "", false
	}
	cfg, err := imageio.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return nil, "", false
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > s.maxPixels/cfg.Height {
		s.fail(w, r, http.StatusRequestEntityTooLarge,
			fmt.Errorf("image is %dx%d, limit is %d pixels", cfg.Width, cfg.Height, s.maxPixels))
		return nil, "", false
	}
	img, err := imageio.Decode(bytes.NewReader(data))
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return nil, "", false
	}

	fields := make(map[string]any, len(r.MultipartForm.Value))
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	format := imageio.FormatPNG
	if f, ok := fields["format"].(string); ok {
		delete(fields, "format")
		if format, err = imageio.ParseFormat(f); err != nil {
			s.fail(w, r, http.StatusBadRequest, err)
			return nil, "", false
		}
	}
	if err := decode(fields, opts); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return nil, "", false
	}
	return &upload{raw: data, img: img}, format, true
}

// checkForm validates the effective form options against the named
// OpenAPI schema.
func (s *Server) checkForm(schema string, format imageio.Format, opts any) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	var value map[string]any
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	value["image"] = ""
	value["format"] = string(format)
	return validateSchema(s.doc, schema, value)
}

// decode applies loosely typed fields (form strings, JSON numbers) to out.
// Unknown fields are rejected.
func decode(fields map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(fields)
}

// serveImage answers from the cache when possible, otherwise renders under
// the distributed lock and fills the cache.
func (s *Server) serveImage(w http.ResponseWriter, r *http.Request, key string, format imageio.Format, render func(context.Context) (image.Image, error)) {
	ctx := r.Context()
	log := s.logger.With("request_id", RequestIDFrom(ctx), "key", key[:12])

	if data, ok := s.lookup(ctx, log, key); ok {
		writeImage(w, format, data, true)
		return
	}

	if s.locker != nil && s.cache != nil {
		unlock, err := s.locker.Lock(ctx, key, lockTTL)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("render lock unavailable", "err", err)
		} else {
			defer func() {
				if err := unlock(context.WithoutCancel(ctx)); err != nil {
					log.Warn("render unlock failed", "err", err)
				}
			}()
			// Another replica may have rendered while we waited.
			if data, ok := s.lookup(ctx, log, key); ok {
				writeImage(w, format, data, true)
				return
			}
		}
	}

	start := time.Now()
	img, err := render(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	data, err := imageio.EncodeBytes(img, format)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	log.Debug("rendered", "format", format, "bytes", len(data), "duration", time.Since(start))

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
			log.Warn("cache store failed", "err", err)
		}
	}
	writeImage(w, format, data, false)
}

func (s *Server) lookup(ctx context.Context, log *slog.Logger, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		s.metrics.cache.WithLabelValues("hit").Inc()
		return data, true
	case errors.Is(err, domain.ErrCacheMiss):
		s.metrics.cache.WithLabelValues("miss").Inc()
	default:
		s.metrics.cache.WithLabelValues("error").Inc()
		log.Warn("cache lookup failed", "err", err)
	}
	return nil, false
}

// cacheKey digests everything that influences the rendered bytes.
func cacheKey(kind string, format imageio.Format, opts any, src []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00", kind, format)
	_ = json.NewEncoder(h).Encode(opts)
	h.Write(src)
	return kind + ":" + hex.EncodeToString(h.Sum(nil))
}

func writeImage(w http.ResponseWriter, format imageio.Format, data []byte, hit bool) {
	w.Header().Set("Content-Type", format.ContentType())
	if hit {
		w.Header().Set(CacheHeader, "hit")
	} else {
		w.Header().Set(CacheHeader, "miss")
	}
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	id := RequestIDFrom(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", id, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "request_id", id, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "request_id": id})
}
