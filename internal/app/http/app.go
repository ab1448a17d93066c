package httpapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"memorial/internal/lib/logger/sl"
	"memorial/internal/middleware"
	httprouters "memorial/internal/transport/http"
	"memorial/internal/transport/http/dto/response"

	"github.com/arl/statsviz"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

type Options struct {
	Host          string
	Port          string
	CORSOrigins   []string
	BodyLimit     string
	SessionSecret string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	// Debug включает /debug/statsviz
	Debug bool
	// StaticDir раздается по /uploads, если хранилище локальное
	StaticDir string
}

type Server struct {
	m       *http.ServeMux
	log     *slog.Logger
	e       *echo.Echo
	routers *httprouters.Routers
	opts    Options
}

func New(log *slog.Logger, opts Options, routers *httprouters.Routers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = opts.ReadTimeout
	e.Server.WriteTimeout = opts.WriteTimeout

	e.Validator = NewValidator()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowCredentials: len(origins) != 1 || origins[0] != "*",
	}))
	if opts.BodyLimit != "" {
		e.Use(echomw.BodyLimit(opts.BodyLimit))
	}
	e.Use(session.Middleware(sessions.NewCookieStore([]byte(opts.SessionSecret))))
	e.Use(middleware.PrometheusMetrics)

	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info("request",
				slog.String("method", v.Method),
				slog.String("URI", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote ip", v.RemoteIP),
			)

			return nil
		},
	}))

	mux := http.NewServeMux()
	if opts.Debug {
		if err := statsviz.Register(mux); err != nil {
			log.Warn("statsviz start with error", sl.Err(err))
		}
	}

	return &Server{
		m:       mux,
		log:     log,
		e:       e,
		routers: routers,
		opts:    opts,
	}
}

// Echo возвращает экземпляр echo с зарегистрированными маршрутами
func (s *Server) Echo() *echo.Echo {
	return s.e
}

func (s *Server) MustRun() {
	const op = "http.Server.MustRun"

	s.log.Info(op, slog.String("Start", "server"), slog.String("port", s.opts.Port))

	if err := s.Start(); err != nil {
		panic(err)
	}
}

func (s *Server) Start() error {
	const op = "http.Server.Start"

	if err := s.e.Start(fmt.Sprintf("%s:%s", s.opts.Host, s.opts.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server stopped: %w", op, err)
	}

	return nil
}

func (s *Server) Stop() error {
	const op = "http.Server.Stop"

	optCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	s.log.Info("stopping", slog.String("op", op))

	if err := s.e.Shutdown(optCtx); err != nil {
		return fmt.Errorf("%s could not shutdown server gracefuly: %w", op, err)
	}

	return nil
}

// bearerAuth принимает JWT из заголовка Authorization, если cookie-сессии нет
func (s *Server) bearerAuth() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: httprouters.TokenContextKey,
		Skipper: func(c echo.Context) bool {
			_, ok := httprouters.CurrentUser(c)
			return ok
		},
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return s.routers.AuthService.Verify(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			s.log.Debug("bearer auth rejected", sl.Err(err))
			return c.JSON(http.StatusUnauthorized, response.ErrAuthRequired)
		},
	})
}

func (s *Server) adminOnlyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := httprouters.CurrentUser(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, response.ErrAuthRequired)
		}

		if !user.IsAdmin() {
			s.log.Warn("admin access denied", slog.String("user_id", user.ID))
			return c.JSON(http.StatusForbidden, response.ErrAdminRequired)
		}

		return next(c)
	}
}

func (s *Server) BuildRouters() {
	s.e.GET("/metrics", echoprometheus.NewHandler())

	if s.opts.Debug {
		debug := s.e.Group("/debug")
		{
			debug.GET("/statsviz/", echo.WrapHandler(s.m))
			debug.GET("/statsviz/*", echo.WrapHandler(s.m))
		}
	}

	s.e.GET("/swagger/*", echoSwagger.WrapHandler)

	if s.opts.StaticDir != "" {
		s.e.Static("/uploads", s.opts.StaticDir)
	}

	api := s.e.Group("/api")
	{
		api.GET("/health", s.routers.Health)

		api.POST("/login", s.routers.Login)
		api.POST("/logout", s.routers.Logout)
		api.GET("/session", s.routers.Session)

		api.POST("/upload", s.routers.UploadMedia)
		api.GET("/files/:userId", s.routers.ListFiles)
		api.DELETE("/files/:userId/*", s.routers.DeleteFile)

		api.GET("/captions/:userId", s.routers.GetCaptions)
		api.PUT("/captions/:userId", s.routers.UpdateCaptions)
		api.GET("/deleted/:userId", s.routers.GetDeleted)

		api.GET("/slideshow/:userId", s.routers.CompileSlideshow)
		api.GET("/slideshow/:userId/cached", s.routers.CachedSlideshow)
		api.GET("/slideshow/:userId/stats", s.routers.SlideshowStats)

		api.GET("/tributes", s.routers.ListTributes)
		api.POST("/tributes", s.routers.AddTribute)
		api.GET("/timeline", s.routers.ListTimeline)

		adminGroup := api.Group("/admin", s.bearerAuth(), s.adminOnlyMiddleware)
		{
			adminGroup.GET("/files", s.routers.AdminListFiles)
			adminGroup.DELETE("/files/:userId/*", s.routers.AdminDeleteFile)
		}
	}
}
