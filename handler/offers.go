package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/paulzwecker/asklio-case-study/pkg/logger"
	"github.com/paulzwecker/asklio-case-study/service"
)

type OfferHandler struct {
	extraction *service.OfferExtractionService
}

func NewOfferHandler(extraction *service.OfferExtractionService) *OfferHandler {
	return &OfferHandler{extraction: extraction}
}

// Parse accepts a vendor offer PDF upload and returns the structured
// extraction result
func (h *OfferHandler) Parse(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	// Content type is rejected before any bytes are read
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/pdf") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are supported"})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to read uploaded offer",
			"filename", header.Filename,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse offer document"})
		return
	}

	result, err := h.extraction.Extract(c.Request.Context(), header.Filename, data)
	if err != nil {
		// The cause stays in the logs; the caller only sees a generic message
		logger.Error(c.Request.Context(), "offer extraction failed",
			"filename", header.Filename,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse offer document"})
		return
	}

	c.JSON(http.StatusOK, result)
}
