package handler

import (
	"net/http"

	"vetclinic/internal/middleware"
	"vetclinic/internal/service"
	"vetclinic/pkg/pagination"
	"vetclinic/pkg/response"

	"github.com/gin-gonic/gin"
)

type MedicalRecordHandler struct {
	recordService service.MedicalRecordService
}

func NewMedicalRecordHandler(recordService service.MedicalRecordService) *MedicalRecordHandler {
	return &MedicalRecordHandler{recordService: recordService}
}

func (h *MedicalRecordHandler) RegisterRoutes(router *gin.RouterGroup) {
	records := router.Group("/medical-records")
	{
		records.GET("/:id", middleware.RequirePermission("records.read"), h.GetByID)
		records.POST("", middleware.RequirePermission("records.write"), h.Create)
		records.PUT("/:id", middleware.RequirePermission("records.write"), h.Update)
	}

	// Record history hangs off the pet resource
	router.GET("/pets/:id/medical-records", middleware.RequirePermission("records.read"), h.ListByPet)
}

// Create handles POST /medical-records
// @Summary      Create medical record
// @Description  Records a visit outcome for a pet, authored by a veterinarian
// @Tags         medical-records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateMedicalRecordRequest  true  "Create Medical Record Payload"
// @Success      201      {object}  response.Response{data=service.MedicalRecordResponse}
// @Failure      400      {object}  response.Response
// @Router       /medical-records [post]
func (h *MedicalRecordHandler) Create(c *gin.Context) {
	var req service.CreateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	record, err := h.recordService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, record))
}

// Update handles PUT /medical-records/:id
// @Summary      Update medical record
// @Tags         medical-records
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                              true  "Record ID"
// @Param        payload  body      service.UpdateMedicalRecordRequest  true  "Update Medical Record Payload"
// @Success      200      {object}  response.Response{data=service.MedicalRecordResponse}
// @Failure      400      {object}  response.Response
// @Router       /medical-records/{id} [put]
func (h *MedicalRecordHandler) Update(c *gin.Context) {
	var req service.UpdateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	record, err := h.recordService.Update(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// GetByID handles GET /medical-records/:id
// @Summary      Get medical record by ID
// @Tags         medical-records
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Record ID"
// @Success      200  {object}  response.Response{data=service.MedicalRecordResponse}
// @Failure      404  {object}  response.Response
// @Router       /medical-records/{id} [get]
func (h *MedicalRecordHandler) GetByID(c *gin.Context) {
	record, err := h.recordService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, record))
}

// ListByPet handles GET /pets/:id/medical-records
// @Summary      List medical records for a pet
// @Tags         medical-records
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Pet ID"
// @Param        page   query     int     false  "Page number (default 1)"
// @Param        limit  query     int     false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      400    {object}  response.Response
// @Router       /pets/{id}/medical-records [get]
func (h *MedicalRecordHandler) ListByPet(c *gin.Context) {
	p := pagination.Parse(c)

	records, total, err := h.recordService.ListByPet(c.Request.Context(), c.Param("id"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"records": records,
		"total":   total,
		"page":    p.Page,
		"limit":   p.Limit,
	}))
}
