package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/triptrack-api/middleware"
	"github.com/LovationAdmin/triptrack-api/models"
	"github.com/LovationAdmin/triptrack-api/utils"
)

// ShareTrip returns the trip's share link, creating it on first use. With
// notify set the link is emailed to members that have an address.
func (h *TripHandler) ShareTrip(c *gin.Context) {
	trip, ok := h.ownedTrip(c)
	if !ok {
		return
	}

	var req models.ShareRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
			return
		}
	}

	profile := middleware.GetProfile(c)
	link, created, err := h.Shares.GetOrCreate(c.Request.Context(), trip, profile.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to create share link")
		return
	}
	h.Metrics.ShareLink(created)

	resp := h.Shares.Response(link, created)
	if req.Notify {
		resp.Notified = h.Shares.Notify(c.Request.Context(), trip, profile, link)
	}
	c.JSON(http.StatusOK, resp)
}
