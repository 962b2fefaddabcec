package adminapi

import (
	"net/http"
	"sync"

	"github.com/bjo163/wagateway/internal/app"
	"github.com/bjo163/wagateway/internal/domain"
	"github.com/bjo163/wagateway/internal/webserver"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

var initOnce sync.Once

// Init registers every api route with the web server. Safe to call repeatedly.
func Init() {
	initOnce.Do(func() {
		registerMessageRoutes()
		registerOtpRoutes()
		registerApprovalRoutes()
		registerSessionRoutes()
	})
}

// Response is the JSON envelope returned by every api route.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Detail  interface{} `json:"detail,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func ok(c echo.Context, msg string, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Success: true, Message: msg, Data: data})
}

func fail(c echo.Context, status int, code, msg string, detail interface{}) error {
	return c.JSON(status, Response{Success: false, Error: msg, Code: code, Detail: detail})
}

// failErr maps a service error onto the envelope: validation and verification
// failures are the caller's fault (400), everything else is ours (500).
func failErr(c echo.Context, err error) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		return fail(c, http.StatusInternalServerError, domain.KindInternal.String(), err.Error(), nil)
	}
	status := http.StatusInternalServerError
	switch de.Kind {
	case domain.KindValidation, domain.KindVerificationFailed:
		status = http.StatusBadRequest
	}
	var detail interface{}
	if de.Err != nil {
		detail = de.Err.Error()
	}
	return fail(c, status, de.Kind.String(), de.Message, detail)
}

// bindAndValidate decodes the body into v and runs struct validation.
// Any failure is reported with the single message missing.
func bindAndValidate(c echo.Context, v interface{}, missing string) error {
	if err := c.Bind(v); err != nil {
		return domain.NewValidationError("Format request tidak valid")
	}
	if err := c.Validate(v); err != nil {
		return domain.NewValidationError(missing)
	}
	return nil
}
