// Package api provides the REST API server for ableton2blackbox
package api

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/padtools/ableton2blackbox/pkg/convert"
	"github.com/padtools/ableton2blackbox/pkg/engine"
)

// @title Ableton2Blackbox API
// @version 1.0
// @description API for converting Ableton Live drum rack projects to Blackbox presets
// @host localhost:8080
// @BasePath /api/v1

// StartServer starts the API server on the specified port
func StartServer(port int, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.POST("/convert", handleConvert(log))
		v1.GET("/formats", listFormats)
	}

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r.Run(fmt.Sprintf(":%d", port))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ableton2blackbox",
	})
}

// listFormats godoc
// @Summary List supported formats
// @Description Returns the supported input and output formats
// @Tags info
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/formats [get]
func listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"input":  []string{"als"},
		"output": []string{"xml"},
		"modes":  []string{"pads", "keys", "midi"},
	})
}

// handleConvert godoc
// @Summary Convert an Ableton Live project to a Blackbox preset
// @Description Upload an .als file and receive the preset.xml. Conversion warnings are returned in the X-Conversion-Warnings header.
// @Tags convert
// @Accept multipart/form-data
// @Produce application/xml
// @Param file formData file true ".als project file to convert"
// @Param tolerance query number false "Grid fit tolerance in step units (default 0.05)"
// @Param fitratio query number false "Required share of fitting onsets (default 0.95)"
// @Param tempo query number false "Manual tempo in BPM, overriding the project tempo"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string
// @Router /api/v1/convert [post]
func handleConvert(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		defer func() { _ = file.Close() }()

		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}

		cfg := engine.DefaultAnalyzerConfig()
		cfg.Tolerance = queryFloat(c, "tolerance", cfg.Tolerance)
		cfg.FitRatio = queryFloat(c, "fitratio", cfg.FitRatio)

		conv := convert.New(convert.Options{
			Analyzer: cfg,
			TempoBPM: queryFloat(c, "tempo", 0),
		}, log)
		preset, res, err := conv.ConvertBytes(data)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}

		if len(res.Warnings) > 0 {
			kinds := make([]string, 0, len(res.Warnings))
			for _, w := range res.Warnings {
				kinds = append(kinds, string(w.Kind))
			}
			c.Header("X-Conversion-Warnings", strings.Join(kinds, ","))
		}

		outputName := "preset.xml"
		if base := strings.TrimSuffix(header.Filename, ".als"); base != "" && base != header.Filename {
			outputName = base + ".xml"
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", outputName))
		c.Data(http.StatusOK, "application/xml", preset)
	}
}

func queryFloat(c *gin.Context, key string, def float64) float64 {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
