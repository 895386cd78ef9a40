package http_test

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	mhttp "github.com/mektycoon/mekforge/pkg/adapters/http"
	"github.com/mektycoon/mekforge/pkg/adapters/memory"
	"github.com/mektycoon/mekforge/pkg/domain"
	"github.com/mektycoon/mekforge/pkg/imageio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourcePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 48, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 48; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			if x >= 12 && x < 36 && y >= 12 && y < 36 {
				c = color.NRGBA{20, 20, 20, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, path string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile("image", "mek.png")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func newServer(t *testing.T, opts ...mhttp.Option) *mhttp.Server {
	t.Helper()
	s, err := mhttp.New(opts...)
	require.NoError(t, err)
	return s
}

func serve(s *mhttp.Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRoutesAreDocumented(t *testing.T) {
	s := newServer(t)
	doc := s.Doc()

	var seen int
	err := chi.Walk(s.Routes(), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen++
		item := doc.Paths.Value(route)
		if assert.NotNil(t, item, "route %s is missing from openapi.yaml", route) {
			assert.NotNil(t, item.GetOperation(method), "%s %s is missing from openapi.yaml", method, route)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, seen)
}

func TestHealthAndOpenAPI(t *testing.T) {
	s := newServer(t)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(mhttp.RequestIDHeader))

	w = serve(s, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/v1/blueprints/technical")
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/variations?type=arm", nil)
	req.Header.Set(mhttp.RequestIDHeader, "req-42")

	w := serve(s, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "req-42", w.Header().Get(mhttp.RequestIDHeader))
	assert.Equal(t, "req-42", errorBody(t, w)["request_id"])
}

func TestListVariations(t *testing.T) {
	vars := []domain.Variation{
		{ID: 1, Name: "Derelict", Type: domain.VariationHead, Count: 1, SourceKey: "000H"},
		{ID: 2, Name: "Rust", Type: domain.VariationBody, Count: 51, SourceKey: "BJ1"},
		{ID: 3, Name: "Stolen", Type: domain.VariationTrait, Count: 1, SourceKey: "000T"},
	}
	s := newServer(t, mhttp.WithCatalog(vars))

	w := serve(s, httptest.NewRequest(http.MethodGet, "/v1/variations", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var all []domain.Variation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
	assert.Equal(t, vars, all)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/v1/variations?type=body", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var bodies []domain.Variation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bodies))
	require.Len(t, bodies, 1)
	assert.Equal(t, "Rust", bodies[0].Name)

	empty := newServer(t)
	w = serve(empty, httptest.NewRequest(http.MethodGet, "/v1/variations", nil))
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestRenderClassic_CachesResult(t *testing.T) {
	cache := memory.NewCache()
	s := newServer(t, mhttp.WithCache(cache, 0), mhttp.WithLocker(memory.NewLocker()))
	src := sourcePNG(t)
	fields := map[string]string{"style": "navy", "grid_size": "12", "seed": "7"}

	first := serve(s, multipartRequest(t, "/v1/blueprints/classic", src, fields))
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, "image/png", first.Header().Get("Content-Type"))
	assert.Equal(t, "miss", first.Header().Get(mhttp.CacheHeader))

	img, err := imageio.Decode(bytes.NewReader(first.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 48, 48), img.Bounds())
	assert.Equal(t, 1, cache.Len())

	second := serve(s, multipartRequest(t, "/v1/blueprints/classic", src, fields))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "hit", second.Header().Get(mhttp.CacheHeader))
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())

	fields["style"] = "blue"
	third := serve(s, multipartRequest(t, "/v1/blueprints/classic", src, fields))
	require.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, "miss", third.Header().Get(mhttp.CacheHeader), "options are part of the key")
}

func TestRenderClassic_Rejects(t *testing.T) {
	s := newServer(t)
	src := sourcePNG(t)

	tests := []struct {
		name   string
		file   []byte
		fields map[string]string
	}{
		{"missing image", nil, nil},
		{"unreadable image", []byte("not an image"), nil},
		{"unknown style", src, map[string]string{"style": "purple"}},
		{"unknown field", src, map[string]string{"colour": "red"}},
		{"bad grid size", src, map[string]string{"grid_size": "big"}},
		{"bad format", src, map[string]string{"format": "gif"}},
		{"grid size above limit", src, map[string]string{"grid_size": "5000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, multipartRequest(t, "/v1/blueprints/classic", tt.file, tt.fields))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, errorBody(t, w)["error"])
		})
	}
}

func TestRenderTechnical_WebP(t *testing.T) {
	s := newServer(t)
	fields := map[string]string{
		"output_size":        "64",
		"enable_annotations": "false",
		"overshoot":          "0",
		"format":             "webp",
		"seed":               "3",
	}

	w := serve(s, multipartRequest(t, "/v1/blueprints/technical", sourcePNG(t), fields))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/webp", w.Header().Get("Content-Type"))
	assert.Equal(t, "miss", w.Header().Get(mhttp.CacheHeader))

	img, err := imageio.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), img.Bounds())
}

func TestRenderTechnical_BadPosition(t *testing.T) {
	s := newServer(t)
	fields := map[string]string{"output_size": "64", "head_position": "middle"}

	w := serve(s, multipartRequest(t, "/v1/blueprints/technical", sourcePNG(t), fields))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorBody(t, w)["error"], "middle")
}

func TestRenderTechnical_OversizedLabel(t *testing.T) {
	s := newServer(t)
	fields := map[string]string{"output_size": "64", "head_name": strings.Repeat("Chrome ", 50)}

	w := serve(s, multipartRequest(t, "/v1/blueprints/technical", sourcePNG(t), fields))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRenderTechnical_RejectsOversizedParameters(t *testing.T) {
	s := newServer(t)
	tests := []struct {
		name   string
		fields map[string]string
	}{
		{"output size", map[string]string{"output_size": "50000"}},
		{"font size", map[string]string{"annotation_font_size": "100000"}},
		{"label margin", map[string]string{"label_margin": "99999"}},
		{"line thickness", map[string]string{"output_size": "64", "enable_annotations": "false", "line_thickness": "5000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, multipartRequest(t, "/v1/blueprints/technical", sourcePNG(t), tt.fields))
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

// pngHeader returns a PNG holding only a signature and an IHDR chunk that
// declares w x h. It is enough for image.DecodeConfig.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], w)
	binary.BigEndian.PutUint32(ihdr[4:], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestUpload_RejectsHugeDimensions(t *testing.T) {
	s := newServer(t)
	for _, path := range []string{"/v1/blueprints/classic", "/v1/blueprints/technical"} {
		w := serve(s, multipartRequest(t, path, pngHeader(100000, 100000), nil))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, path)
		assert.Contains(t, errorBody(t, w)["error"], "100000x100000")
	}

	s = newServer(t, mhttp.WithMaxSourcePixels(100))
	w := serve(s, multipartRequest(t, "/v1/blueprints/classic", sourcePNG(t), nil))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRenderEssence(t *testing.T) {
	s := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/essences", strings.NewReader(`{"name":"Rust","type":"body","size":60}`))
	w := serve(s, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	img, err := imageio.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 60, 60), img.Bounds())
}

func TestRenderEssence_Rejects(t *testing.T) {
	s := newServer(t)
	bodies := []string{
		`not json`,
		`{"type":"body"}`,
		`{"name":"Rust","type":"arm"}`,
		`{"name":"Rust","type":"body","size":4}`,
		`{"name":"Rust","type":"body","colour":"red"}`,
		`{"name":"Rust","type":"body","format":"gif"}`,
	}
	for _, body := range bodies {
		w := serve(s, httptest.NewRequest(http.MethodPost, "/v1/essences", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t, mhttp.WithCache(memory.NewCache(), 0))

	serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	serve(s, httptest.NewRequest(http.MethodPost, "/v1/essences", strings.NewReader(`{"name":"A","type":"head"}`)))

	w := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `mekforge_http_requests_total{code="200",route="/healthz"} 1`)
	assert.Contains(t, body, `route="/v1/essences"`)
	assert.Contains(t, body, `mekforge_render_cache_total{result="miss"} 1`)
}
