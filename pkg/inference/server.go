package inference

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/odahu/odahu-mlflow-aws/pkg/logger"
	"github.com/odahu/odahu-mlflow-aws/pkg/metrics"
)

// NewRouter builds the gin engine exposing the prediction surface over HTTP.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	router.GET("/health/self", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "true"})
	})
	router.POST("/", handleInvocation(h))
	router.POST("/invocations", handleInvocation(h))

	return router
}

func handleInvocation(h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusInternalServerError, "failed to read request body: %v", err)
			return
		}

		// The raw header is used instead of gin's ContentType(): the codec
		// content types carry a format parameter that must be preserved.
		result := h.HandleHTTP(c.Request.Context(), body, c.GetHeader("Content-Type"))

		for key, value := range result.Headers {
			c.Header(key, value)
		}
		c.String(result.StatusCode, result.Body)

		tags := []string{"status:" + strconv.Itoa(result.StatusCode)}
		metrics.Count("inference.request.total", 1, tags)
		metrics.Timing("inference.request.latency", time.Since(startTime), tags)
	}
}

// RunServer serves the prediction surface on the given port, blocking until
// the listener fails.
func RunServer(h *Handler, port int) error {
	logger.Info(fmt.Sprintf("Serving predictions at port %d", port))
	return NewRouter(h).Run(fmt.Sprintf(":%d", port))
}
