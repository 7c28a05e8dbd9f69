package handler

import (
	"net/http"

	"vetclinic/internal/middleware"
	"vetclinic/internal/service"
	"vetclinic/pkg/pagination"
	"vetclinic/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvitationHandler struct {
	invService service.InvitationService
}

func NewInvitationHandler(invService service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invService: invService}
}

func (h *InvitationHandler) RegisterRoutes(router *gin.RouterGroup) {
	invs := router.Group("/invitations")
	{
		invs.GET("", middleware.RequirePermission("invitations.manage"), h.List)
		invs.POST("", middleware.RequirePermission("invitations.manage"), h.Create)
		invs.PUT("/:id/revoke", middleware.RequirePermission("invitations.manage"), h.Revoke)
	}

	// Accept is public: the invitee has no account yet
	router.POST("/invitations/accept", h.Accept)
}

// Create handles POST /invitations
// @Summary      Create staff invitation
// @Description  Issues an invitation for a new staff member. The raw token is returned once and never stored.
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateInvitationRequest  true  "Create Invitation Payload"
// @Success      201      {object}  response.Response{data=service.InvitationResponse}
// @Failure      400      {object}  response.Response
// @Router       /invitations [post]
func (h *InvitationHandler) Create(c *gin.Context) {
	var req service.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	inv, err := h.invService.Create(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, inv))
}

// Accept handles POST /invitations/accept
// @Summary      Accept invitation
// @Description  Creates an account for the invitee using the one-time invitation token
// @Tags         invitations
// @Accept       json
// @Produce      json
// @Param        payload  body      service.AcceptInvitationRequest  true  "Accept Invitation Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /invitations/accept [post]
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req service.AcceptInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.invService.Accept(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// Revoke handles PUT /invitations/:id/revoke
// @Summary      Revoke invitation
// @Tags         invitations
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Invitation ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /invitations/{id}/revoke [put]
func (h *InvitationHandler) Revoke(c *gin.Context) {
	if err := h.invService.Revoke(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Invitation revoked"))
}

// List handles GET /invitations
// @Summary      List invitations
// @Tags         invitations
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        status  query     string  false  "Filter by status"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /invitations [get]
func (h *InvitationHandler) List(c *gin.Context) {
	p := pagination.Parse(c)

	invs, total, err := h.invService.List(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch invitations"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"invitations": invs,
		"total":       total,
		"page":        p.Page,
		"limit":       p.Limit,
	}))
}
