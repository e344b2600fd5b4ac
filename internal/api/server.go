package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/samcharles93/lmexplorer/internal/inference"
	"github.com/samcharles93/lmexplorer/internal/logger"
	"github.com/samcharles93/lmexplorer/internal/metrics"
)

// Route paths, also used to bound metric labels.
const (
	PathPredict  = "/predict"
	PathRandom   = "/random"
	PathBeam     = "/beam"
	PathGenerate = "/generate"
	PathHealth   = "/healthz"
	PathStats    = "/stats"
	PathMetrics  = "/metrics"
)

// Paths lists every registered route.
var Paths = []string{PathPredict, PathRandom, PathBeam, PathGenerate, PathHealth, PathStats, PathMetrics}

type Server struct {
	engine inference.Engine
	log    logger.Logger
}

func NewServer(engine inference.Engine, log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{engine: engine, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST(PathPredict, s.handlePredict)
	e.POST(PathRandom, s.handleRandom)
	e.POST(PathBeam, s.handleBeam)
	e.POST(PathGenerate, s.handleGenerate)

	e.GET(PathHealth, s.handleHealth)
	e.GET(PathStats, s.handleStats)
	e.GET(PathMetrics, echo.WrapHandler(metrics.Handler()))
}

// NewEcho returns an echo instance with the standard middleware stack and
// every route registered.
func NewEcho(s *Server) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(s.requestContext)
	s.Register(e)
	return e
}

// requestContext tags each request with an id and carries a logger bound to
// it in the request context.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		req := c.Request()
		id := req.Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		ctx := logger.WithContext(req.Context(), s.log.With("request_id", id))
		c.SetRequest(req.WithContext(ctx))
		return next(c)
	}
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleStats(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.CacheStats())
}
