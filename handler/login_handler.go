package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/compliance-be/config"
	"github.com/tieubaoca/compliance-be/types"
	"github.com/tieubaoca/compliance-be/utils"
)

type LoginHandler struct {
	cfg *config.Config
}

func NewLoginHandler(cfg *config.Config) *LoginHandler {
	return &LoginHandler{
		cfg: cfg,
	}
}

// HandleLogin exchanges the admin credential for a bearer token used by
// the indexing and maintenance endpoints.
func (h *LoginHandler) HandleLogin(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid request body",
		})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.cfg.AdminUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.cfg.AdminPassword)) == 1
	if !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, types.DataResponse{
			Status:  false,
			Message: "Invalid credentials",
		})
		return
	}

	token, err := utils.GenerateAdminToken(h.cfg.JWTSecret, req.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: "Failed to issue token",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   types.LoginResponse{Token: token},
	})
}
