package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/dkessler/txvep/internal/annotate"
	"github.com/dkessler/txvep/internal/cache"
	"github.com/dkessler/txvep/internal/genome"
)

// serveConfig holds the settings for the "serve" subcommand. Fields are
// bound from flags first, then any TXVEP_-prefixed environment variable
// that is set overrides them, so the precedence is env > flags > defaults
// (env wins here because a long-running service is more often reconfigured
// through its process environment than through a flag change requiring a
// restart anyway).
type serveConfig struct {
	Assembly     string `envconfig:"ASSEMBLY"`
	Addr         string `envconfig:"ADDR"`
	ReloadPeriod string `envconfig:"RELOAD_PERIOD"`
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	assembly := fs.String("assembly", "GRCh38", "Genome assembly to serve")
	addr := fs.String("addr", ":8080", "HTTP listen address")
	reloadPeriod := fs.String("reload-period", "1h", "How often to re-scan for an updated GENCODE cache")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}

	cfg := serveConfig{Assembly: *assembly, Addr: *addr, ReloadPeriod: *reloadPeriod}
	if err := envconfig.Process("txvep", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: reading environment configuration: %v\n", err)
		return ExitError
	}

	interval, err := time.ParseDuration(cfg.ReloadPeriod)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --reload-period %q: %v\n", cfg.ReloadPeriod, err)
		return ExitUsage
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: building logger: %v\n", err)
		return ExitError
	}
	defer logger.Sync()

	svc := newAnnotationService(cfg.Assembly, logger)
	if err := svc.reload(); err != nil {
		logger.Error("initial reference data load failed", zap.Error(err))
		return ExitError
	}

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(interval).Do(func() {
		if err := svc.reload(); err != nil {
			logger.Warn("scheduled reference data reload failed", zap.Error(err))
		}
	}); err != nil {
		logger.Error("scheduling reload job failed", zap.Error(err))
		return ExitError
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	e := echo.New()
	e.HideBanner = true
	e.POST("/v1/annotate", svc.handleAnnotate)
	e.GET("/healthz", svc.handleHealthz)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("annotation service listening", zap.String("addr", cfg.Addr))
		if err := e.Start(cfg.Addr); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("annotation service exited with error", zap.Error(err))
		return ExitError
	}
	return ExitSuccess
}

// annotationService wraps a hot-swappable *cache.Cache behind the same
// Dispatcher the batch pipeline uses, so the HTTP surface and the CLI
// produce identical annotations from identical inputs.
type annotationService struct {
	assembly string
	logger   *zap.Logger

	group    singleflight.Group
	current  atomic.Pointer[annotationServiceState]
}

type annotationServiceState struct {
	dispatcher *annotate.Dispatcher
	cache      *cache.Cache
}

func newAnnotationService(assembly string, logger *zap.Logger) *annotationService {
	return &annotationService{assembly: assembly, logger: logger}
}

// reload rebuilds the reference-data cache and atomically swaps it in.
// Concurrent callers (the scheduled job and a manual reload endpoint, were
// one added) collapse onto a single in-flight load via singleflight.
func (s *annotationService) reload() error {
	_, err, _ := s.group.Do("reload", func() (interface{}, error) {
		gtfPath, fastaPath, canonicalPath, found := FindGENCODEFiles(s.assembly)
		if !found {
			return nil, fmt.Errorf("no GENCODE cache found for assembly %s", s.assembly)
		}

		c := cache.New()
		loader := cache.NewGENCODELoader(gtfPath, fastaPath)
		if canonicalPath != "" {
			if overrides, err := cache.LoadCanonicalOverrides(canonicalPath); err == nil {
				loader.SetCanonicalOverrides(overrides)
			}
		}
		if err := loader.Load(c); err != nil {
			return nil, fmt.Errorf("loading GENCODE cache: %w", err)
		}

		s.current.Store(&annotationServiceState{
			dispatcher: annotate.NewDispatcher(c, annotate.DefaultOptions()),
			cache:      c,
		})
		s.logger.Info("reference data reloaded",
			zap.String("assembly", s.assembly),
			zap.Int("transcripts", c.TranscriptCount()))
		return nil, nil
	})
	return err
}

// annotateRequest and annotateResponse are the JSON wire types for
// POST /v1/annotate.
type annotateRequest struct {
	Variants []struct {
		Chrom string `json:"chrom"`
		Pos   int64  `json:"pos"`
		Ref   string `json:"ref"`
		Alt   string `json:"alt"`
	} `json:"variants"`
}

type annotateResponse struct {
	RequestID string                 `json:"request_id"`
	Results   [][]*annotate.Annotation `json:"results"`
}

func (s *annotationService) handleAnnotate(c echo.Context) error {
	requestID := uuid.NewString()
	logger := s.logger.With(zap.String("request_id", requestID))

	var req annotateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	state := s.current.Load()
	if state == nil {
		logger.Error("annotate called before reference data was loaded")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "reference data not yet loaded")
	}

	resp := annotateResponse{RequestID: requestID, Results: make([][]*annotate.Annotation, 0, len(req.Variants))}
	for _, v := range req.Variants {
		ch := genome.FromVCF(genome.ChromosomeID(0), genome.Pos(v.Pos), v.Ref, v.Alt)
		anns, err := state.dispatcher.Annotate(v.Chrom, ch)
		if err != nil {
			logger.Warn("annotate failed for variant",
				zap.String("chrom", v.Chrom), zap.Int64("pos", v.Pos), zap.Error(err))
			resp.Results = append(resp.Results, nil)
			continue
		}
		resp.Results = append(resp.Results, anns)
	}

	return c.JSON(http.StatusOK, resp)
}

func (s *annotationService) handleHealthz(c echo.Context) error {
	if s.current.Load() == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "reference data not yet loaded")
	}
	return c.NoContent(http.StatusOK)
}
