package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/paulzwecker/asklio-case-study/model"
	"github.com/paulzwecker/asklio-case-study/service"
)

type RequestHandler struct {
	service *service.RequestService
}

func NewRequestHandler(svc *service.RequestService) *RequestHandler {
	return &RequestHandler{service: svc}
}

// List returns all procurement requests matching the query filters
func (h *RequestHandler) List(c *gin.Context) {
	filter := service.ListFilter{
		Department: c.Query("department"),
		Search:     c.Query("search"),
	}

	if statusParam := c.Query("status_filter"); statusParam != "" {
		status := model.RequestStatus(statusParam)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		filter.Status = status
	}

	c.JSON(http.StatusOK, h.service.List(filter))
}

// Create stores a new procurement request
func (h *RequestHandler) Create(c *gin.Context) {
	var payload model.ProcurementRequestCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}

	req := h.service.Create(&payload)
	c.JSON(http.StatusCreated, req)
}

// Get returns a single procurement request
func (h *RequestHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}

	req, err := h.service.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}

	c.JSON(http.StatusOK, req)
}

type statusUpdatePayload struct {
	Status model.RequestStatus `json:"status" binding:"required"`
}

// UpdateStatus transitions a procurement request to a new status
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}

	var payload statusUpdatePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status payload"})
		return
	}
	if !payload.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status value"})
		return
	}

	req, err := h.service.UpdateStatus(id, payload.Status)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, req)
}
