package handler

import (
	"net/http"

	"vetclinic/internal/middleware"
	"vetclinic/internal/service"
	"vetclinic/pkg/pagination"
	"vetclinic/pkg/response"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	apptService service.AppointmentService
}

func NewAppointmentHandler(apptService service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{apptService: apptService}
}

func (h *AppointmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	appts := router.Group("/appointments")
	{
		appts.GET("", middleware.RequirePermission("appointments.read"), h.List)
		appts.GET("/:id", middleware.RequirePermission("appointments.read"), h.GetByID)
		appts.POST("", middleware.RequirePermission("appointments.write"), h.Create)
		appts.PUT("/:id/reschedule", middleware.RequirePermission("appointments.write"), h.Reschedule)
		appts.PUT("/:id/cancel", middleware.RequirePermission("appointments.write"), h.Cancel)
		appts.PUT("/:id/complete", middleware.RequirePermission("appointments.write"), h.Complete)
		appts.PUT("/:id/no-show", middleware.RequirePermission("appointments.write"), h.MarkNoShow)
	}
}

// Create handles POST /appointments
// @Summary      Create appointment
// @Description  Schedules a visit with an active veterinarian. Rejects overlapping bookings.
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAppointmentRequest  true  "Create Appointment Payload"
// @Success      201      {object}  response.Response{data=service.AppointmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	var req service.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	appt, err := h.apptService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, appt))
}

// Reschedule handles PUT /appointments/:id/reschedule
// @Summary      Reschedule appointment
// @Description  Moves a scheduled appointment to a new time. Rejected inside the cutoff window before the start time.
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                true  "Appointment ID"
// @Param        payload  body      service.RescheduleAppointmentRequest  true  "Reschedule Payload"
// @Success      200      {object}  response.Response{data=service.AppointmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /appointments/{id}/reschedule [put]
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	var req service.RescheduleAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	appt, err := h.apptService.Reschedule(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, appt))
}

// Cancel handles PUT /appointments/:id/cancel
// @Summary      Cancel appointment
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Appointment ID"
// @Success      200  {object}  response.Response{data=service.AppointmentResponse}
// @Failure      400  {object}  response.Response
// @Router       /appointments/{id}/cancel [put]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appt, err := h.apptService.Cancel(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, appt))
}

// Complete handles PUT /appointments/:id/complete
// @Summary      Complete appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                              true   "Appointment ID"
// @Param        payload  body      service.CompleteAppointmentRequest  false  "Completion notes"
// @Success      200      {object}  response.Response{data=service.AppointmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /appointments/{id}/complete [put]
func (h *AppointmentHandler) Complete(c *gin.Context) {
	var req service.CompleteAppointmentRequest
	// Body is optional for completion
	_ = c.ShouldBindJSON(&req)

	appt, err := h.apptService.Complete(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, appt))
}

// MarkNoShow handles PUT /appointments/:id/no-show
// @Summary      Mark appointment as no-show
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Appointment ID"
// @Success      200  {object}  response.Response{data=service.AppointmentResponse}
// @Failure      400  {object}  response.Response
// @Router       /appointments/{id}/no-show [put]
func (h *AppointmentHandler) MarkNoShow(c *gin.Context) {
	appt, err := h.apptService.MarkNoShow(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, appt))
}

// GetByID handles GET /appointments/:id
// @Summary      Get appointment by ID
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Appointment ID"
// @Success      200  {object}  response.Response{data=service.AppointmentResponse}
// @Failure      404  {object}  response.Response
// @Router       /appointments/{id} [get]
func (h *AppointmentHandler) GetByID(c *gin.Context) {
	appt, err := h.apptService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, appt))
}

// List handles GET /appointments
// @Summary      List appointments
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Param        page             query     int     false  "Page number (default 1)"
// @Param        limit            query     int     false  "Number of items per page (default 20)"
// @Param        status           query     string  false  "Filter by status"
// @Param        veterinarian_id  query     string  false  "Filter by veterinarian UUID"
// @Param        pet_id           query     string  false  "Filter by pet UUID"
// @Param        from             query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to               query     string  false  "End date (YYYY-MM-DD)"
// @Success      200              {object}  response.Response{data=object}
// @Failure      500              {object}  response.Response
// @Router       /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	appts, total, err := h.apptService.List(c.Request.Context(), service.AppointmentListQuery{
		Status:         c.Query("status"),
		VeterinarianID: c.Query("veterinarian_id"),
		PetID:          c.Query("pet_id"),
		From:           c.Query("from"),
		To:             c.Query("to"),
		Page:           p.Page,
		Limit:          p.Limit,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"appointments": appts,
		"total":        total,
		"page":         p.Page,
		"limit":        p.Limit,
	}))
}
