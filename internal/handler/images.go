package handler

import (
	"net/http"
	"strconv"

	"github.com/faceapi/backend/internal/model"
	"github.com/faceapi/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type ImageHandler struct {
	svc *service.ImageService
}

func NewImageHandler(svc *service.ImageService) *ImageHandler {
	return &ImageHandler{svc: svc}
}

// DetectFaces godoc
// @Summary Detect faces in a base64-encoded image
// @Tags images
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.DetectRequest true "Base64-encoded image"
// @Success 201 {object} model.ImageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /app/detect_faces [post]
func (h *ImageHandler) DetectFaces(c *gin.Context) {
	claims := GetAuthClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req model.DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Base64 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base64 image payload is required"})
		return
	}

	image, faces, err := h.svc.DetectFaces(c.Request.Context(), claims.UserID, req.Base64)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.NewImageResponse(image, faces))
}

// ListImages godoc
// @Summary List images visible to the caller
// @Tags images
// @Produce json
// @Security BearerAuth
// @Param sort query int false "+1 newest first (default), -1 oldest first"
// @Success 200 {array} model.ImageResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /app/ [get]
func (h *ImageHandler) ListImages(c *gin.Context) {
	claims := GetAuthClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sortDir := 1
	if raw := c.Query("sort"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || (parsed != 1 && parsed != -1) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be 1 or -1"})
			return
		}
		sortDir = parsed
	}

	images, err := h.svc.ListForUser(c.Request.Context(), claims.UserID, sortDir)
	if err != nil {
		writeError(c, err)
		return
	}

	res := make([]model.ImageResponse, 0, len(images))
	for i := range images {
		res = append(res, model.NewImageResponse(&images[i], 0))
	}
	c.JSON(http.StatusOK, res)
}

// GetImage godoc
// @Summary Fetch one image by id
// @Tags images
// @Produce json
// @Security BearerAuth
// @Param id path string true "Image ID"
// @Success 200 {object} model.ImageResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /app/{id} [get]
func (h *ImageHandler) GetImage(c *gin.Context) {
	image, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.NewImageResponse(image, 0))
}
