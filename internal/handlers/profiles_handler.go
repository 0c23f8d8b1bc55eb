package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

type ProfilesHandler struct {
	repo *repository.ProfilesRepository
	log  *logrus.Logger
}

func NewProfilesHandler(repo *repository.ProfilesRepository, log *logrus.Logger) *ProfilesHandler {
	return &ProfilesHandler{
		repo: repo,
		log:  log,
	}
}

// GetProfiles lists all user profiles
// @Summary Get profiles
// @Description Get all user profiles, newest first
// @Tags Profiles
// @Accept json
// @Produce json
// @Success 200 {object} models.ProfileListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /profiles [get]
func (h *ProfilesHandler) GetProfiles(c *gin.Context) {
	profiles, err := h.repo.ListProfiles()
	if err != nil {
		h.log.WithError(err).Error("failed to list profiles")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve profiles",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProfileListResponse{Success: true, Data: profiles})
}

// UpdateProfile updates admin-managed profile fields
// @Summary Update profile
// @Description Toggle approval or set/clear the access expiry for a profile
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param profile body models.UpdateProfileRequest true "Profile updates"
// @Success 200 {object} models.ProfileResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{id} [patch]
func (h *ProfilesHandler) UpdateProfile(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	if req.IsApproved == nil && req.AccessExpiry == nil && !req.ClearExpiry {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "No fields to update",
			},
		})
		return
	}

	if req.IsApproved != nil {
		if err := h.repo.SetApproval(id, *req.IsApproved); err != nil {
			h.respondUpdateError(c, err)
			return
		}
	}
	if req.AccessExpiry != nil || req.ClearExpiry {
		expiry := req.AccessExpiry
		if req.ClearExpiry {
			expiry = nil
		}
		if err := h.repo.SetAccessExpiry(id, expiry); err != nil {
			h.respondUpdateError(c, err)
			return
		}
	}

	profile, err := h.repo.GetProfileByID(id)
	if err != nil {
		h.respondUpdateError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProfileResponse{Success: true, Data: profile})
}

func (h *ProfilesHandler) respondUpdateError(c *gin.Context, err error) {
	if err == repository.ErrProfileNotFound {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NOT_FOUND",
				Message: "Profile not found",
			},
		})
		return
	}
	h.log.WithError(err).Error("failed to update profile")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to update profile",
		},
	})
}
