package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiterEnforcesPerIPBudget(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(2, time.Minute)
	router := gin.New()
	router.POST("/limited", rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	hit := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/limited", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := hit("192.0.2.1:1000"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, code)
		}
	}
	if code := hit("192.0.2.1:1000"); code != http.StatusTooManyRequests {
		t.Errorf("over budget: status = %d, want 429", code)
	}

	// A different IP has its own bucket.
	if code := hit("192.0.2.2:1000"); code != http.StatusOK {
		t.Errorf("other IP: status = %d, want 200", code)
	}
}
