package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/importar-info/importador/models"
)

func authRouter(apiKeys []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Auth(apiKeys))
	r.GET("/whoami", func(c *gin.Context) {
		key, _ := c.Get("api_key")
		c.String(http.StatusOK, "%v", key)
	})
	return r
}

func TestAuth_OpenAccessWithoutKeys(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	authRouter(nil).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want open access when no keys configured", w.Code)
	}
}

func TestAuth_MissingKeyRejected(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	authRouter([]string{"secret"}).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	var resp models.ScrapeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != models.ErrCodeUnauthorized {
		t.Errorf("error = %+v, want UNAUTHORIZED", resp.Error)
	}
}

func TestAuth_AcceptsBothHeaderStyles(t *testing.T) {
	r := authRouter([]string{"secret"})

	for _, set := range []func(*http.Request){
		func(req *http.Request) { req.Header.Set("X-API-Key", "secret") },
		func(req *http.Request) { req.Header.Set("Authorization", "Bearer secret") },
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		set(req)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if w.Body.String() != "secret" {
			t.Errorf("api_key in context = %q, want the presented key", w.Body.String())
		}
	}
}

func TestAuth_WrongKeyRejected(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-API-Key", "wrong")
	authRouter([]string{"secret"}).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
