package handler

import (
	"net/http"

	"vetclinic/internal/middleware"
	"vetclinic/internal/service"
	"vetclinic/pkg/pagination"
	"vetclinic/pkg/response"

	"github.com/gin-gonic/gin"
)

type PetHandler struct {
	petService service.PetService
}

func NewPetHandler(petService service.PetService) *PetHandler {
	return &PetHandler{petService: petService}
}

func (h *PetHandler) RegisterRoutes(router *gin.RouterGroup) {
	owners := router.Group("/owners")
	{
		owners.GET("", middleware.RequirePermission("owners.read"), h.ListOwners)
		owners.GET("/:id", middleware.RequirePermission("owners.read"), h.GetOwner)
		owners.POST("", middleware.RequirePermission("owners.write"), h.CreateOwner)
		owners.PUT("/:id", middleware.RequirePermission("owners.write"), h.UpdateOwner)
		owners.DELETE("/:id", middleware.RequirePermission("owners.write"), h.DeleteOwner)
	}

	pets := router.Group("/pets")
	{
		pets.GET("", middleware.RequirePermission("pets.read"), h.ListPets)
		pets.GET("/:id", middleware.RequirePermission("pets.read"), h.GetPet)
		pets.POST("", middleware.RequirePermission("pets.write"), h.CreatePet)
		pets.PUT("/:id", middleware.RequirePermission("pets.write"), h.UpdatePet)
		pets.DELETE("/:id", middleware.RequirePermission("pets.write"), h.DeletePet)
	}
}

// CreateOwner handles POST /owners
// @Summary      Create owner
// @Description  Registers a new pet owner
// @Tags         owners
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOwnerRequest  true  "Create Owner Payload"
// @Success      201      {object}  response.Response{data=service.OwnerResponse}
// @Failure      400      {object}  response.Response
// @Router       /owners [post]
func (h *PetHandler) CreateOwner(c *gin.Context) {
	var req service.CreateOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	owner, err := h.petService.CreateOwner(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, owner))
}

// UpdateOwner handles PUT /owners/:id
// @Summary      Update owner
// @Tags         owners
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Owner ID"
// @Param        payload  body      service.UpdateOwnerRequest  true  "Update Owner Payload"
// @Success      200      {object}  response.Response{data=service.OwnerResponse}
// @Failure      400      {object}  response.Response
// @Router       /owners/{id} [put]
func (h *PetHandler) UpdateOwner(c *gin.Context) {
	var req service.UpdateOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	owner, err := h.petService.UpdateOwner(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, owner))
}

// DeleteOwner handles DELETE /owners/:id
// @Summary      Delete owner
// @Description  Deletes an owner. Owners with registered pets cannot be deleted.
// @Tags         owners
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Owner ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /owners/{id} [delete]
func (h *PetHandler) DeleteOwner(c *gin.Context) {
	if err := h.petService.DeleteOwner(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Owner deleted successfully"))
}

// GetOwner handles GET /owners/:id
// @Summary      Get owner by ID
// @Description  Fetch one owner with their registered pets
// @Tags         owners
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Owner ID"
// @Success      200  {object}  response.Response{data=service.OwnerResponse}
// @Failure      404  {object}  response.Response
// @Router       /owners/{id} [get]
func (h *PetHandler) GetOwner(c *gin.Context) {
	owner, err := h.petService.GetOwner(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, owner))
}

// ListOwners handles GET /owners
// @Summary      List owners
// @Tags         owners
// @Produce      json
// @Security     BearerAuth
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Search by name, email or phone"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /owners [get]
func (h *PetHandler) ListOwners(c *gin.Context) {
	p := pagination.Parse(c)

	owners, total, err := h.petService.ListOwners(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch owners"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"owners": owners,
		"total":  total,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// CreatePet handles POST /pets
// @Summary      Create pet
// @Description  Registers a new pet under an existing owner
// @Tags         pets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePetRequest  true  "Create Pet Payload"
// @Success      201      {object}  response.Response{data=service.PetResponse}
// @Failure      400      {object}  response.Response
// @Router       /pets [post]
func (h *PetHandler) CreatePet(c *gin.Context) {
	var req service.CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	pet, err := h.petService.CreatePet(c.Request.Context(), c.GetString("userID"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, pet))
}

// UpdatePet handles PUT /pets/:id
// @Summary      Update pet
// @Tags         pets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Pet ID"
// @Param        payload  body      service.UpdatePetRequest  true  "Update Pet Payload"
// @Success      200      {object}  response.Response{data=service.PetResponse}
// @Failure      400      {object}  response.Response
// @Router       /pets/{id} [put]
func (h *PetHandler) UpdatePet(c *gin.Context) {
	var req service.UpdatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload"))
		return
	}

	pet, err := h.petService.UpdatePet(c.Request.Context(), c.GetString("userID"), c.Param("id"), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pet))
}

// DeletePet handles DELETE /pets/:id
// @Summary      Delete pet
// @Tags         pets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Pet ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /pets/{id} [delete]
func (h *PetHandler) DeletePet(c *gin.Context) {
	if err := h.petService.DeletePet(c.Request.Context(), c.GetString("userID"), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Pet deleted successfully"))
}

// GetPet handles GET /pets/:id
// @Summary      Get pet by ID
// @Tags         pets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Pet ID"
// @Success      200  {object}  response.Response{data=service.PetResponse}
// @Failure      404  {object}  response.Response
// @Router       /pets/{id} [get]
func (h *PetHandler) GetPet(c *gin.Context) {
	pet, err := h.petService.GetPet(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pet))
}

// ListPets handles GET /pets
// @Summary      List pets
// @Tags         pets
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Param        search    query     string  false  "Search by name, species or breed"
// @Param        owner_id  query     string  false  "Filter by owner UUID"
// @Success      200       {object}  response.Response{data=object}
// @Failure      500       {object}  response.Response
// @Router       /pets [get]
func (h *PetHandler) ListPets(c *gin.Context) {
	p := pagination.Parse(c)

	pets, total, err := h.petService.ListPets(c.Request.Context(), p.Page, p.Limit, c.Query("search"), c.Query("owner_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to fetch pets"))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"pets":  pets,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	}))
}
