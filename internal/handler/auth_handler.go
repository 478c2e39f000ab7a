package handler

import (
	"net/http"

	"stocksage/internal/auth"
	"stocksage/internal/service"
	"stocksage/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService service.UserService
	guestStore  *auth.GuestStore
	guestPool   *auth.GuestPool
}

func NewAuthHandler(userService service.UserService, guestStore *auth.GuestStore, guestPool *auth.GuestPool) *AuthHandler {
	return &AuthHandler{userService: userService, guestStore: guestStore, guestPool: guestPool}
}

// RegisterRoutes binds the auth endpoints. Guest endpoints always answer
// JSON, never redirect.
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", h.Logout)
		authGroup.GET("/me", h.GetMe)
		authGroup.GET("/guest", h.ReadGuestSession)
		authGroup.POST("/guest", h.StartGuestSession)
		authGroup.DELETE("/guest", h.EndGuestSession)
	}
}

// Register creates a new user account
// @Summary      Register user
// @Description  Creates a new user account with a hashed password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload: "+err.Error()))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.OK("Account created", user))
}

// Login authenticates a user and issues the session cookie
// @Summary      Login user
// @Description  Authenticates by email and password, sets the session cookie and returns the token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error("Invalid request payload"))
		return
	}

	tokenRes, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(err.Error()))
		return
	}

	auth.SetSessionCookie(c, tokenRes.Token)
	c.JSON(http.StatusOK, response.OK("Logged in", tokenRes))
}

// Logout clears the session cookie
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	auth.ClearSessionCookie(c)
	c.JSON(http.StatusOK, response.OK("Logged out", nil))
}

// GetMe returns the resolved identity's user record
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.OK("", user))
}

// ReadGuestSession introspects the current guest cookie
// @Summary      Read guest session
// @Description  Returns the current guest ID, or null when no unexpired guest cookie is present
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/auth/guest [get]
func (h *AuthHandler) ReadGuestSession(c *gin.Context) {
	guestID := h.guestStore.Read(c)
	if guestID == "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "guestId": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "guestId": guestID})
}

// StartGuestSession materializes a guest account and sets the guest cookie
// @Summary      Start guest session
// @Description  Acquires a guest account (reusing an idle one when available) and issues the signed guest cookie
// @Tags         auth
// @Produce      json
// @Success      201  {object}  map[string]interface{}
// @Failure      500  {object}  response.Response
// @Router       /api/auth/guest [post]
func (h *AuthHandler) StartGuestSession(c *gin.Context) {
	guest, err := h.guestPool.Acquire(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to start guest session"))
		return
	}

	if err := h.guestStore.Issue(c, guest.ID); err != nil {
		c.JSON(http.StatusInternalServerError, response.Error("Failed to issue guest session"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Guest session started",
		"guestId": guest.ID,
	})
}

// EndGuestSession deletes the guest cookie
// @Summary      End guest session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/auth/guest [delete]
func (h *AuthHandler) EndGuestSession(c *gin.Context) {
	h.guestStore.Destroy(c)
	c.JSON(http.StatusOK, response.OK("Guest session ended", nil))
}
