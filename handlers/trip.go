package handlers

import (
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/triptrack-api/middleware"
	"github.com/LovationAdmin/triptrack-api/models"
	"github.com/LovationAdmin/triptrack-api/services"
	"github.com/LovationAdmin/triptrack-api/utils"
	"github.com/LovationAdmin/triptrack-api/views"
)

const msgTripNotFound = "Trip not found"

// TripHandler serves trips, their members, savings and share links.
type TripHandler struct {
	Trips   *services.TripService
	Members *services.MemberService
	Shares  *services.ShareService
	Metrics *middleware.Metrics
	Now     func() time.Time
}

func NewTripHandler(trips *services.TripService, members *services.MemberService, shares *services.ShareService, metrics *middleware.Metrics) *TripHandler {
	return &TripHandler{
		Trips:   trips,
		Members: members,
		Shares:  shares,
		Metrics: metrics,
		Now:     time.Now,
	}
}

// tripAccess describes how the caller reached a trip.
type tripAccess struct {
	trip         *models.Trip
	canEdit      bool
	isAdmin      bool
	viaShareLink bool
}

// viewableTrip resolves a trip for read-only pages. A ?token= query is checked
// against the trip's share links and drops every admin affordance. Otherwise
// the caller must be signed in and either own the trip or be one of its members.
func (h *TripHandler) viewableTrip(c *gin.Context) (*tripAccess, bool) {
	id, ok := pathID(c, "id", msgTripNotFound)
	if !ok {
		return nil, false
	}
	ctx := c.Request.Context()

	if token := c.Query("token"); token != "" {
		if err := h.Shares.Validate(ctx, id, token); err != nil {
			respondServiceError(c, err, "Failed to load trip")
			return nil, false
		}
		trip, err := h.Trips.Get(ctx, id)
		if err != nil {
			respondServiceError(c, err, "Failed to load trip")
			return nil, false
		}
		return &tripAccess{trip: trip, viaShareLink: true}, true
	}

	profile := middleware.GetProfile(c)
	if profile == nil {
		utils.RespondRedirect(c, http.StatusUnauthorized, "Please sign in to view this trip", utils.RedirectLogin)
		return nil, false
	}

	trip, err := h.Trips.Get(ctx, id)
	if err != nil {
		respondServiceError(c, err, "Failed to load trip")
		return nil, false
	}

	if trip.CreatedBy == profile.ID {
		return &tripAccess{trip: trip, canEdit: profile.IsAdmin(), isAdmin: profile.IsAdmin()}, true
	}
	for _, m := range trip.Members {
		if m.UserID == profile.ID {
			return &tripAccess{trip: trip, isAdmin: profile.IsAdmin()}, true
		}
	}

	utils.RespondRedirect(c, http.StatusNotFound, msgTripNotFound, utils.RedirectDashboard)
	return nil, false
}

// ownedTrip loads a trip the acting profile created, for mutations.
func (h *TripHandler) ownedTrip(c *gin.Context) (*models.Trip, bool) {
	id, ok := pathID(c, "id", msgTripNotFound)
	if !ok {
		return nil, false
	}

	trip, err := h.Trips.GetOwned(c.Request.Context(), middleware.GetProfile(c).ID, id)
	if err != nil {
		respondServiceError(c, err, "Failed to load trip")
		return nil, false
	}
	return trip, true
}

// ============================================================================
// DASHBOARD & ADMIN CRUD
// ============================================================================

func (h *TripHandler) ListTrips(c *gin.Context) {
	profile := middleware.GetProfile(c)

	trips, err := h.Trips.List(c.Request.Context(), profile.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load trips")
		return
	}

	now := h.Now()
	cards := make([]views.TripCard, 0, len(trips))
	for _, trip := range trips {
		cards = append(cards, views.NewTripCard(trip, now))
	}
	c.JSON(http.StatusOK, gin.H{
		"trips":    cards,
		"user":     profile,
		"is_admin": profile.IsAdmin(),
	})
}

func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req models.TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}
	in, err := services.ValidateTripRequest(req)
	if err != nil {
		respondServiceError(c, err, "Failed to create trip")
		return
	}

	trip, err := h.Trips.Create(c.Request.Context(), middleware.GetProfile(c), in)
	if err != nil {
		respondServiceError(c, err, "Failed to create trip")
		return
	}
	c.JSON(http.StatusCreated, views.NewTripCard(*trip, h.Now()))
}

func (h *TripHandler) UpdateTrip(c *gin.Context) {
	id, ok := pathID(c, "id", msgTripNotFound)
	if !ok {
		return
	}

	var req models.TripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.BindingErrorMessage(err))
		return
	}
	in, err := services.ValidateTripRequest(req)
	if err != nil {
		respondServiceError(c, err, "Failed to update trip")
		return
	}

	trip, err := h.Trips.Update(c.Request.Context(), middleware.GetProfile(c), id, in)
	if err != nil {
		respondServiceError(c, err, "Failed to update trip")
		return
	}
	c.JSON(http.StatusOK, views.NewTripCard(*trip, h.Now()))
}

func (h *TripHandler) DeleteTrip(c *gin.Context) {
	id, ok := pathID(c, "id", msgTripNotFound)
	if !ok || !confirmed(c) {
		return
	}

	if err := h.Trips.Delete(c.Request.Context(), middleware.GetProfile(c), id); err != nil {
		respondServiceError(c, err, "Failed to delete trip")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Trip deleted"})
}

// ============================================================================
// TRIP PAGES
// ============================================================================

func (h *TripHandler) GetTrip(c *gin.Context) {
	access, ok := h.viewableTrip(c)
	if !ok {
		return
	}

	logs, err := h.Members.Logs(c.Request.Context(), access.trip.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load savings history")
		return
	}

	detail := views.NewTripDetail(*access.trip, logs, h.Now())
	detail.CanEdit = access.canEdit
	detail.IsAdmin = access.isAdmin
	detail.ViaShareLink = access.viaShareLink
	c.JSON(http.StatusOK, detail)
}

func (h *TripHandler) GetPhotos(c *gin.Context) {
	access, ok := h.viewableTrip(c)
	if !ok {
		return
	}

	gallery := views.NewGallery(*access.trip, h.Now())
	gallery.ViaShareLink = access.viaShareLink
	c.JSON(http.StatusOK, gallery)
}

// ExportCSV streams the member savings table as a CSV download.
func (h *TripHandler) ExportCSV(c *gin.Context) {
	trip, ok := h.ownedTrip(c)
	if !ok {
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": views.ExportFilename(trip.Name)})
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", disposition)
	c.Status(http.StatusOK)

	if err := views.WriteSavingsCSV(c.Writer, *trip); err != nil {
		c.Error(err)
	}
}
