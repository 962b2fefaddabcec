package webserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bjo163/wagateway/config"
	"github.com/bjo163/wagateway/internal/app"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

// AppContextKey is the echo context key holding the app.AppContext.
const AppContextKey = "appctx"

const Banner = "🚀 WhatsApp API Running..."

type route struct {
	method  string
	path    string
	handler echo.HandlerFunc
}

var (
	routesMu  sync.Mutex
	apiRoutes []route
)

func addRoute(method, path string, h echo.HandlerFunc) {
	routesMu.Lock()
	defer routesMu.Unlock()
	apiRoutes = append(apiRoutes, route{method: method, path: path, handler: h})
}

// ApiGET registers a GET handler under /api.
func ApiGET(path string, h echo.HandlerFunc) { addRoute(http.MethodGet, path, h) }

// ApiPOST registers a POST handler under /api.
func ApiPOST(path string, h echo.HandlerFunc) { addRoute(http.MethodPost, path, h) }

type AdminServer struct {
	root   *echo.Echo
	cfg    *config.AppConfig
	appCtx app.AppContext
}

// NewAdminServer builds the echo instance and mounts every registered api route.
func NewAdminServer(cfg *config.AppConfig, appCtx app.AppContext) *AdminServer {
	s := &AdminServer{root: echo.New(), cfg: cfg, appCtx: appCtx}
	e := s.root
	e.HideBanner = true
	e.HidePort = true
	e.Debug = cfg.System.Debug
	e.JSONSerializer = &JSONSerializer{}
	e.Validator = NewValidator()
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins(cfg.Web.CorsOrigins),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(zapRequestLogger())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(AppContextKey, s.appCtx)
			return next(c)
		}
	})

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, Banner)
	})
	e.GET("/api-docs", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/api-docs/index.html")
	})
	e.GET("/api-docs/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	if cfg.Web.JwtSecret != "" {
		api.Use(echojwt.WithConfig(echojwt.Config{
			SigningKey: []byte(cfg.Web.JwtSecret),
			ErrorHandler: func(c echo.Context, err error) error {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token tidak valid")
			},
		}))
	}

	routesMu.Lock()
	for _, r := range apiRoutes {
		api.Add(r.method, r.path, r.handler)
	}
	routesMu.Unlock()
	return s
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// Echo exposes the underlying router, mainly for tests.
func (s *AdminServer) Echo() *echo.Echo {
	return s.root
}

// Start blocks serving HTTP until Shutdown is called.
func (s *AdminServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Web.Host, s.cfg.Web.Port)
	zap.S().Infof("Start the web server %s", addr)
	s.root.Server.ReadHeaderTimeout = 10 * time.Second
	err := s.root.Start(addr)
	if err != nil && err != http.ErrServerClosed {
		zap.S().Errorf("web server error %s", err.Error())
		return err
	}
	return nil
}

func (s *AdminServer) Shutdown(ctx context.Context) error {
	return s.root.Shutdown(ctx)
}

// httpErrorHandler keeps framework errors in the {success:false,error} shape.
func (s *AdminServer) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := err.Error()
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		zap.L().Error("web: request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(code)
	} else {
		werr = c.JSON(code, map[string]interface{}{"success": false, "error": msg})
	}
	if werr != nil {
		zap.L().Error("web: failed to write error response", zap.Error(werr))
	}
}

func zapRequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogMethod:   true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				zap.L().Warn("web: request", fields...)
				return nil
			}
			zap.L().Debug("web: request", fields...)
			return nil
		},
	})
}
