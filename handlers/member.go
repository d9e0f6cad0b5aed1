package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LovationAdmin/triptrack-api/middleware"
	"github.com/LovationAdmin/triptrack-api/models"
	"github.com/LovationAdmin/triptrack-api/services"
	"github.com/LovationAdmin/triptrack-api/utils"
	"github.com/LovationAdmin/triptrack-api/views"
)

const msgMemberNotFound = "Member not found"

func (h *TripHandler) ListMembers(c *gin.Context) {
	trip, ok := h.ownedTrip(c)
	if !ok {
		return
	}

	members := make([]views.MemberView, 0, len(trip.Members))
	for _, m := range trip.Members {
		members = append(members, views.MemberView{
			TripMember: m,
			Progress:   views.NewProgressAvatar(m, trip.TargetAmount),
		})
	}
	c.JSON(http.StatusOK, members)
}

// ListCandidates returns the travelers that can still be added to the trip.
func (h *TripHandler) ListCandidates(c *gin.Context) {
	trip, ok := h.ownedTrip(c)
	if !ok {
		return
	}

	users, err := h.Members.Candidates(c.Request.Context(), trip.ID, middleware.GetProfile(c).OwnerScope())
	if err != nil {
		respondServiceError(c, err, "Failed to load travelers")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *TripHandler) AddMember(c *gin.Context) {
	trip, ok := h.ownedTrip(c)
	if !ok {
		return
	}

	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Please select a traveler")
		return
	}
	userID, ok := validID(c, req.UserID, msgTravelerNotFound)
	if !ok {
		return
	}

	member, err := h.Members.Add(c.Request.Context(), trip, middleware.GetProfile(c).OwnerScope(), userID)
	if err != nil {
		respondServiceError(c, err, "Failed to add member")
		return
	}
	c.JSON(http.StatusCreated, views.MemberView{
		TripMember: *member,
		Progress:   views.NewProgressAvatar(*member, trip.TargetAmount),
	})
}

func (h *TripHandler) RemoveMember(c *gin.Context) {
	trip, ok := h.ownedTrip(c)
	if !ok {
		return
	}
	memberID, ok := pathID(c, "member_id", msgMemberNotFound)
	if !ok {
		return
	}

	if err := h.Members.Remove(c.Request.Context(), trip.ID, memberID); err != nil {
		respondServiceError(c, err, "Failed to remove member")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// AddSavings adds an increment to a member's savings. The response carries the
// member as re-read after the write.
func (h *TripHandler) AddSavings(c *gin.Context) {
	trip, ok := h.ownedTrip(c)
	if !ok {
		return
	}
	memberID, ok := pathID(c, "member_id", msgMemberNotFound)
	if !ok {
		return
	}

	var req models.AddSavingsRequest
	if err := c.ShouldBindJSON(&req); err != nil || !req.Amount.Valid {
		h.Metrics.SavingsUpdate("invalid")
		respondServiceError(c, services.ErrInvalidAmount, "Failed to update savings")
		return
	}

	result, err := h.Members.AddSavings(c.Request.Context(), trip, memberID, req.Amount.Decimal, middleware.GetProfile(c).ID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrConflict):
			h.Metrics.SavingsUpdate("conflict")
		case errors.Is(err, services.ErrValidation):
			h.Metrics.SavingsUpdate("invalid")
		default:
			h.Metrics.SavingsUpdate("error")
		}
		respondServiceError(c, err, "Failed to update savings")
		return
	}
	h.Metrics.SavingsUpdate("ok")

	c.JSON(http.StatusOK, gin.H{
		"member": views.MemberView{
			TripMember: result.Member,
			Progress:   views.NewProgressAvatar(result.Member, trip.TargetAmount),
		},
		"old_amount":       result.OldAmount,
		"new_amount":       result.NewAmount,
		"goal_reached_now": result.GoalReachedNow,
		"log":              result.Log,
	})
}
