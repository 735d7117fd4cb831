package controllers

import (
	"net/http"
	"strconv"

	"github.com/periodcalm/period-calm-website-sub000/services"
	"github.com/periodcalm/period-calm-website-sub000/utils"

	"github.com/gin-gonic/gin"
)

// AdminController serves every back-office table through one set of handlers
// keyed by the :resource path segment.
type AdminController struct {
	Admin *services.AdminService
}

func NewAdminController(admin *services.AdminService) *AdminController {
	return &AdminController{Admin: admin}
}

type listParams struct {
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
	Sort    string `form:"sort"`
	Status  string `form:"status"`
	Email   string `form:"email"`
}

func (ac *AdminController) resource(c *gin.Context) (services.Resource, bool) {
	r, err := ac.Admin.Resource(c.Param("resource"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return r, true
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// GET /admin
func (ac *AdminController) Resources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"resources": ac.Admin.Names()})
}

// GET /admin/:resource
func (ac *AdminController) List(c *gin.Context) {
	r, ok := ac.resource(c)
	if !ok {
		return
	}
	var p listParams
	if err := c.ShouldBindQuery(&p); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	page, err := r.List(c.Request.Context(), services.ListQuery{
		Page: p.Page, PerPage: p.PerPage, Sort: p.Sort, Status: p.Status, Email: p.Email,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONPage(c, page.Rows, page.Page, page.PerPage, page.Total)
}

// GET /admin/:resource/:id
func (ac *AdminController) Get(c *gin.Context) {
	r, ok := ac.resource(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	row, err := r.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": row})
}

// POST /admin/:resource
func (ac *AdminController) Create(c *gin.Context) {
	r, ok := ac.resource(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "unreadable body")
		return
	}
	row, err := r.Create(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": row})
}

// PATCH /admin/:resource/:id
func (ac *AdminController) Update(c *gin.Context) {
	r, ok := ac.resource(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", "unreadable body")
		return
	}
	row, err := r.Update(c.Request.Context(), id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": row})
}

// DELETE /admin/:resource/:id
func (ac *AdminController) Delete(c *gin.Context) {
	r, ok := ac.resource(c)
	if !ok {
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := r.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
