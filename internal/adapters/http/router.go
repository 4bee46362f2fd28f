package http

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/instanthelp/dispatch/internal/domain/ports"
	"github.com/instanthelp/dispatch/internal/metrics"
	"github.com/instanthelp/dispatch/internal/observability"
)

// ginLogger returns a gin.HandlerFunc (middleware) that logs requests using our observability logger
func ginLogger() gin.HandlerFunc {
	logger := observability.New("gin-http", "")

	return func(c *gin.Context) {
		// Start timer
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		// Process request
		c.Next()

		// Calculate latency
		latency := time.Since(start)

		// Get status code and other details
		statusCode := c.Writer.Status()
		method := c.Request.Method
		clientIP := c.ClientIP()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		// Build log fields
		fields := []interface{}{
			"status", statusCode,
			"method", method,
			"path", path,
			"ip", clientIP,
			"latency_ms", latency.Milliseconds(),
		}

		if query != "" {
			fields = append(fields, "query", query)
		}

		if errorMessage != "" {
			fields = append(fields, "error", errorMessage)
		}

		// Log based on status code
		if statusCode >= 500 {
			logger.Errorw("HTTP request error", fields...)
		} else if statusCode >= 400 {
			logger.Warnw("HTTP request warning", fields...)
		} else {
			logger.Infow("HTTP request", fields...)
		}
	}
}

// ginRecovery returns a gin.HandlerFunc (middleware) that recovers from panics and logs using our observability logger
func ginRecovery() gin.HandlerFunc {
	logger := observability.New("gin-recovery", "")

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				// Get the full stack trace
				stack := debug.Stack()

				// Log the panic with full stack trace
				logger.Errorw("Panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"ip", c.ClientIP(),
					"stack", string(stack),
				)

				// Also print to stderr for immediate visibility
				fmt.Printf("\n=== PANIC RECOVERED ===\n")
				fmt.Printf("Error: %v\n", err)
				fmt.Printf("Path: %s\n", c.Request.URL.Path)
				fmt.Printf("Method: %s\n", c.Request.Method)
				fmt.Printf("Client IP: %s\n", c.ClientIP())
				fmt.Printf("\nStack Trace:\n%s\n", string(stack))
				fmt.Printf("======================\n\n")

				// Abort with 500 status
				c.AbortWithStatus(500)
			}
		}()
		c.Next()
	}
}

// RouterOptions configures optional router features
type RouterOptions struct {
	MetricsEnabled bool
	MetricsPath    string
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(dispatchService ports.DispatchService, adapter ports.DatabaseAdapter, opts RouterOptions) *gin.Engine {
	// Set Gin to release mode to disable debug logging
	gin.SetMode(gin.ReleaseMode)

	// Create router without default middleware
	router := gin.New()

	// Add custom recovery middleware (must be first)
	router.Use(ginRecovery())

	// Add custom logger middleware
	router.Use(ginLogger())

	handler := NewHandler(dispatchService, adapter)

	// Dispatch coordination API
	api := router.Group("/api/v1")
	{
		api.POST("/emergencies", handler.ReportEmergency)
		api.GET("/emergencies", handler.ListEmergencies)
		api.GET("/emergencies/:id", handler.GetEmergency)
		api.PATCH("/emergencies/:id/status", handler.UpdateStatus)
		api.POST("/emergencies/:id/dispatch", handler.Dispatch)
		api.GET("/emergencies/:id/log", handler.History)
		api.GET("/units", handler.ListUnits)
		api.PATCH("/units/:id/status", handler.UpdateUnitStatus)
	}

	// Health check
	router.GET("/health", handler.HealthCheck)

	// Prometheus scrape endpoint
	if opts.MetricsEnabled {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(metrics.Handler()))
	}

	return router
}
