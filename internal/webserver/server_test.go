package webserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bjo163/wagateway/config"
	"github.com/labstack/echo/v4"
)

type echoBody struct {
	Name string `json:"name" validate:"required"`
}

func init() {
	ApiPOST("/echo", func(c echo.Context) error {
		var body echoBody
		if err := c.Bind(&body); err != nil {
			return err
		}
		if err := c.Validate(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "name wajib diisi")
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "name": body.Name})
	})
}

func newTestServer(cfg config.AppConfig) *echo.Echo {
	return NewAdminServer(&cfg, nil).Echo()
}

func doRequest(e *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestBanner(t *testing.T) {
	rec := doRequest(newTestServer(*config.DefaultAppConfig), http.MethodGet, "/", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != Banner {
		t.Fatalf("GET / = %d %q", rec.Code, rec.Body.String())
	}
}

func TestRegisteredRoute(t *testing.T) {
	e := newTestServer(*config.DefaultAppConfig)
	rec := doRequest(e, http.MethodPost, "/api/echo", `{"name":"wa"}`, nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name":"wa"`) {
		t.Fatalf("POST /api/echo = %d %s", rec.Code, rec.Body.String())
	}
}

func TestErrorShape(t *testing.T) {
	e := newTestServer(*config.DefaultAppConfig)
	cases := []struct {
		name   string
		method string
		path   string
		body   string
		code   int
		errMsg string
	}{
		{"not found", http.MethodGet, "/api/missing", "", http.StatusNotFound, "Not Found"},
		{"bad json", http.MethodPost, "/api/echo", `{"name":`, http.StatusBadRequest, ""},
		{"validation", http.MethodPost, "/api/echo", `{}`, http.StatusBadRequest, "name wajib diisi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(e, tc.method, tc.path, tc.body, nil)
			if rec.Code != tc.code {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.code, rec.Body.String())
			}
			body := rec.Body.String()
			if !strings.Contains(body, `"success":false`) || !strings.Contains(body, tc.errMsg) {
				t.Fatalf("unexpected body %s", body)
			}
		})
	}
}

func TestJwtGuard(t *testing.T) {
	cfg := *config.DefaultAppConfig
	cfg.Web.JwtSecret = "secret"
	e := newTestServer(cfg)

	rec := doRequest(e, http.MethodPost, "/api/echo", `{"name":"wa"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	// the banner stays public
	if rec := doRequest(e, http.MethodGet, "/", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
}
