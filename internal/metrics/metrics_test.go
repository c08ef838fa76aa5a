package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware())
	router.GET("/api/v1/petitions/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/v1/petitions/:id", "204"))
	for _, id := range []string{"1", "2", "3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/petitions/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/api/v1/petitions/:id", "204"))

	assert.Equal(t, 3.0, after-before)
}

func TestRecordListing(t *testing.T) {
	before := testutil.ToFloat64(listings.WithLabelValues("COST_ASC"))
	RecordListing("COST_ASC", 12)
	assert.Equal(t, 1.0, testutil.ToFloat64(listings.WithLabelValues("COST_ASC"))-before)
}

func TestHandler_ExposesRegistry(t *testing.T) {
	SetWebsocketClients(2)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "petitions_ws_connected_clients 2"))
}
