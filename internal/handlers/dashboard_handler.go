package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

type DashboardHandler struct {
	products *repository.ProductsRepository
	profiles *repository.ProfilesRepository
	log      *logrus.Logger
}

func NewDashboardHandler(products *repository.ProductsRepository, profiles *repository.ProfilesRepository, log *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{
		products: products,
		profiles: profiles,
		log:      log,
	}
}

// GetStats returns dashboard statistics
// @Summary Get dashboard stats
// @Description Get product, category and user counts for the admin dashboard
// @Tags Dashboard
// @Accept json
// @Produce json
// @Success 200 {object} models.StatsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *gin.Context) {
	totalProducts, byCategory, bySubcategory, err := h.products.GetDashboardCounts()
	if err != nil {
		h.log.WithError(err).Error("failed to count products")
		h.respondError(c)
		return
	}

	totalUsers, pendingUsers, err := h.profiles.CountProfiles()
	if err != nil {
		h.log.WithError(err).Error("failed to count profiles")
		h.respondError(c)
		return
	}

	c.JSON(http.StatusOK, models.StatsResponse{
		Success: true,
		Data: &models.DashboardStats{
			TotalProducts:    totalProducts,
			TotalUsers:       totalUsers,
			PendingUsers:     pendingUsers,
			CategoryCounts:   byCategory,
			SubcategoryCount: bySubcategory,
		},
	})
}

func (h *DashboardHandler) respondError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to compute dashboard stats",
		},
	})
}
