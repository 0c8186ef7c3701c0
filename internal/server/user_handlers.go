package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/adminkit-dev/adminkit/internal/auth"
	"github.com/adminkit-dev/adminkit/internal/models"
)

const defaultAvatar = "https://wpimg.wallstcn.com/f778738c-e4f8-4870-b634-56703b4acafe.gif"

// SetupRequest represents the first-run setup request
type SetupRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone" binding:"omitempty,cnphone"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginData is returned inside the envelope of a successful login
type LoginData struct {
	Token string `json:"token"`
}

// UserInfo is the profile of the current user
type UserInfo struct {
	Name         string     `json:"name"`
	Avatar       string     `json:"avatar"`
	Roles        []string   `json:"roles"`
	Introduction string     `json:"introduction,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// @Summary First-run setup
// @Description Creates the first admin user (only works if no users exist)
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SetupRequest true "Setup request"
// @Success 200 {object} Envelope
// @Router /api/setup [post]
func (s *Server) setupFirstAdmin(c *gin.Context) {
	var req SetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondCode(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	// Check if any users exist
	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		respondCode(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
		return
	}

	if count > 0 {
		respondCode(c, http.StatusConflict, CodeSetupCompleted, "Setup already completed")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		respondCode(c, http.StatusInternalServerError, CodeInternal, "Failed to create user")
		return
	}

	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: passwordHash,
		Name:         req.Name,
		Avatar:       defaultAvatar,
		Introduction: "I am a super administrator",
		Phone:        req.Phone,
	}
	user.SetRoles([]string{"admin"})

	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create admin user")
		respondCode(c, http.StatusInternalServerError, CodeInternal, "Failed to create user")
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("First admin user created")

	s.issueToken(c, user)
}

// @Summary Login
// @Description Authenticate with username and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} Envelope
// @Router /api/user/login [post]
func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondCode(c, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	// Find user by username
	var user models.User
	if err := s.db.Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondCode(c, http.StatusOK, CodeInvalidCredentials, "Invalid username or password")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		respondCode(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
		return
	}

	// Verify password
	if err := auth.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		respondCode(c, http.StatusOK, CodeInvalidCredentials, "Invalid username or password")
		return
	}

	now := time.Now()
	if err := s.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		// Not fatal for the login itself
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record last login")
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User logged in")

	s.issueToken(c, &user)
}

func (s *Server) issueToken(c *gin.Context, user *models.User) {
	issued, err := auth.GenerateToken(user.ID, user.Username, user.RoleList(), s.config.Session.TokenTTL)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		respondCode(c, http.StatusInternalServerError, CodeInternal, "Failed to generate token")
		return
	}

	respondOK(c, LoginData{Token: issued.Token})
}

// @Summary Get current user
// @Description Profile of the user owning the token; data is null when the user no longer exists
// @Tags user
// @Produce json
// @Param token query string true "Session token"
// @Success 200 {object} Envelope
// @Router /api/user/info [get]
func (s *Server) getInfo(c *gin.Context) {
	sessionData, exists := GetSessionData(c)
	if !exists {
		respondCode(c, http.StatusOK, CodeInvalidToken, "Invalid token")
		return
	}

	var user models.User
	if err := models.FindByID(s.db, sessionData.UserID, &user); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Str("user_id", sessionData.UserID).Msg("Token owner no longer exists")
			respondOK(c, nil)
			return
		}
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to find user")
		respondCode(c, http.StatusInternalServerError, CodeInternal, "Internal server error")
		return
	}

	respondOK(c, UserInfo{
		Name:         user.Name,
		Avatar:       user.Avatar,
		Roles:        user.RoleList(),
		Introduction: user.Introduction,
		LastLoginAt:  user.LastLoginAt,
	})
}

// @Summary List granted routes
// @Description Dynamic routes granted to the roles in the token
// @Tags user
// @Produce json
// @Param token query string true "Session token"
// @Success 200 {object} Envelope
// @Router /api/user/routes [get]
func (s *Server) listRoutes(c *gin.Context) {
	sessionData, _ := GetSessionData(c)
	respondOK(c, s.catalog.ForRoles(sessionData.Roles))
}

// @Summary Logout
// @Description Revokes the session token
// @Tags user
// @Accept json
// @Produce json
// @Success 200 {object} Envelope
// @Router /api/user/logout [post]
func (s *Server) logout(c *gin.Context) {
	sessionData, _ := GetSessionData(c)

	revocation := &models.RevokedToken{
		JTI:       sessionData.TokenID,
		UserID:    sessionData.UserID,
		ExpiresAt: sessionData.ExpiresAt,
	}
	if err := s.db.Create(revocation).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", sessionData.UserID).Msg("Failed to revoke token")
		respondCode(c, http.StatusInternalServerError, CodeInternal, "Failed to log out")
		return
	}

	s.logger.Info().Str("user_id", sessionData.UserID).Msg("User logged out")
	respondOK(c, nil)
}
