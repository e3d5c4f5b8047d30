package rest

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"techsupport/backend/internal/auth"
	"techsupport/backend/internal/transport/rest/apierror"
)

type requestValidator struct {
	v *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return &requestValidator{v: v}
}

func (r *requestValidator) Validate(i any) error {
	return r.v.Struct(i)
}

// NewServer wires the routes on a fresh echo instance. Everything under /api requires a
// bearer token.
func NewServer(h *Handler, tokens *auth.Tokens, requestTimeout time.Duration, log *zap.Logger) *echo.Echo {
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger(log))
	if requestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{Timeout: requestTimeout}))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api", auth.Middleware(tokens))

	ts := api.Group("/TechSupport")
	ts.GET("/Schedule", h.mySchedule)
	ts.GET("/tech-supports", h.listTechnicians)
	ts.POST("/Add-Availabile", h.addSlot)
	ts.DELETE("/Delete-Availabile/:id", h.removeSlot)
	ts.GET("/:techId/Schedule", h.techSchedule)
	ts.GET("/:techId/slots", h.bookableSlots)

	ap := api.Group("/Appointment")
	ap.POST("/create", h.createAppointment)
	ap.POST("/approve/:id", h.approve)
	ap.POST("/reject/:id", h.reject)
	ap.POST("/complete/:id", h.complete)
	ap.POST("/rate/:id", h.rate)
	ap.PUT("/meeting-link/:id", h.setMeetingLink)
	ap.GET("/myAppointment", h.myAppointments)
	ap.GET("/tech/schedule", h.techAppointments)
	ap.GET("/:id", h.getAppointment)

	return e
}

func requestLogger(log *zap.Logger) echo.MiddlewareFunc {
	log = log.With(zap.String("component", "http.access"))
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			)
			return nil
		},
	})
}

// errorHandler renders errors that escape the handlers, such as unknown routes, in the
// same body shape as rule violations.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		body := apierror.FromError(err)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			body = apierror.New(he.Code, codeForStatus(he.Code), fmt.Sprint(he.Message))
		}
		if body.Status >= http.StatusInternalServerError {
			log.Error("unhandled error", zap.Error(err), zap.String("uri", c.Request().RequestURI))
		}
		if err := c.JSON(body.Status, body); err != nil {
			log.Warn("write error response failed", zap.Error(err))
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusServiceUnavailable:
		return "TIMEOUT"
	}
	if status < http.StatusInternalServerError {
		return "INVALID_INPUT"
	}
	return "INTERNAL"
}
