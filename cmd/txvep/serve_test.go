package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkessler/txvep/internal/annotate"
	"github.com/dkessler/txvep/internal/cache"
)

func newTestAnnotationService(t *testing.T) *annotationService {
	t.Helper()
	tr := &cache.Transcript{
		ID:          "ENSTS1",
		GeneID:      "ENSTS1_gene",
		GeneName:    "ENSTS1Gene",
		Chrom:       "1",
		Strand:      1,
		CDSStart:    1000,
		CDSEnd:      1008,
		RefCDSStart: 1,
		CDSSequence: "ATGGGCTAA",
		Exons:       []cache.Exon{{Number: 1, Start: 1000, End: 1008}},
		Start:       1000,
		End:         1008,
	}
	c := cache.New()
	c.AddTranscript(tr)

	svc := newAnnotationService("GRCh38", zap.NewNop())
	svc.current.Store(&annotationServiceState{
		dispatcher: annotate.NewDispatcher(c, annotate.DefaultOptions()),
		cache:      c,
	})
	return svc
}

func TestHandleAnnotate_ReturnsAnnotationsPerVariant(t *testing.T) {
	svc := newTestAnnotationService(t)
	e := echo.New()

	body := `{"variants":[{"chrom":"1","pos":1004,"ref":"G","alt":"A"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/annotate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, svc.handleAnnotate(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"missense_variant"`)
	assert.Contains(t, rec.Body.String(), `"request_id"`)
}

func TestHandleAnnotate_MalformedBodyReturnsBadRequest(t *testing.T) {
	svc := newTestAnnotationService(t)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/v1/annotate", bytes.NewReader([]byte("not json")))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := svc.handleAnnotate(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestHandleAnnotate_BeforeReloadReturnsServiceUnavailable(t *testing.T) {
	svc := newAnnotationService("GRCh38", zap.NewNop())
	e := echo.New()

	body := `{"variants":[]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/annotate", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := svc.handleAnnotate(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
}

func TestHandleHealthz(t *testing.T) {
	e := echo.New()

	unloaded := newAnnotationService("GRCh38", zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := unloaded.handleHealthz(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Code)

	loaded := newTestAnnotationService(t)
	rec2 := httptest.NewRecorder()
	c2 := e.NewContext(req, rec2)
	require.NoError(t, loaded.handleHealthz(c2))
	assert.Equal(t, http.StatusOK, rec2.Code)
}
