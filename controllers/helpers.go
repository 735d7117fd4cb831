package controllers

import (
	"errors"
	"net/http"

	"github.com/periodcalm/period-calm-website-sub000/models"
	"github.com/periodcalm/period-calm-website-sub000/services"
	"github.com/periodcalm/period-calm-website-sub000/utils"

	"github.com/gin-gonic/gin"
)

func ownerFromCtx(c *gin.Context) string {
	return models.OwnerKey(c.GetUint("userID"))
}

// respondError maps service errors onto status codes. Anything unrecognised
// becomes a 500 with a generic message; the detail goes to the request log.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidDate):
		utils.JSONError(c, http.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, services.ErrInvalidRecord):
		utils.JSONError(c, http.StatusUnprocessableEntity, "invalid_record", err.Error())
	case errors.Is(err, services.ErrInvalidQuery):
		utils.JSONError(c, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, services.ErrNotFound), errors.Is(err, services.ErrUnknownResource):
		utils.JSONError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		utils.JSONError(c, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.JSONError(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, services.ErrBadCredentials):
		utils.JSONError(c, http.StatusUnauthorized, "unauthorized", err.Error())
	default:
		_ = c.Error(err)
		utils.JSONError(c, http.StatusInternalServerError, "internal", "something went wrong, please try again")
	}
}
