package http

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"targetboard/internal/auth"
	"targetboard/internal/domain"
	"targetboard/internal/service"
	"targetboard/pkg/validator"
)

const userIDKey = "user_id"

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	tokens *auth.TokenManager
	logger *logrus.Logger
}

func NewHandler(users service.UserService, tokens *auth.TokenManager, logger *logrus.Logger) *Handler {
	return &Handler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)

		authorized := api.Group("", h.authMiddleware())
		authorized.GET("/profile", h.getProfile)
		authorized.PUT("/target", h.updateTarget)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authMiddleware gates a route group on a bearer token. A missing credential
// and a present-but-unverifiable one are reported distinctly: 401 for the
// former, 400 for the latter.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access denied: no token provided"})
			return
		}

		// anything after the Bearer scheme (or the whole header when the
		// scheme is malformed) is treated as a credential and verified; only
		// a truly absent token stays a 401
		token := strings.TrimPrefix(header, "Bearer ")
		if strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access denied: no token provided"})
			return
		}

		userID, err := h.tokens.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type updateTargetRequest struct {
	Target string `json:"target"`
}

type userResponse struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	Target    *string `json:"target"`
	CreatedAt string  `json:"created_at,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if errs := validator.ValidateRegister(req.Username, req.Password); errs.HasErrors() {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrors(errs)})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		h.logger.WithError(err).Error("register user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.WithError(err).Error("issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  userToResponse(user),
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if errs := validator.ValidateLogin(req.Username, req.Password); errs.HasErrors() {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrors(errs)})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		h.logger.WithError(err).Error("login user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.WithError(err).Error("issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userToResponse(user),
	})
}

func (h *Handler) getProfile(c *gin.Context) {
	userID := c.GetString(userIDKey)

	user, err := h.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.WithError(err).Error("get profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

func (h *Handler) updateTarget(c *gin.Context) {
	userID := c.GetString(userIDKey)

	var req updateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if errs := validator.ValidateTarget(req.Target); errs.HasErrors() {
		c.JSON(http.StatusBadRequest, gin.H{"errors": fieldErrors(errs)})
		return
	}

	user, err := h.users.UpdateTarget(c.Request.Context(), userID, req.Target)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyTarget):
			c.JSON(http.StatusBadRequest, gin.H{"errors": []fieldError{{Field: "target", Message: "Target is required"}}})
		case errors.Is(err, domain.ErrUserNotFound):
			// valid token but no matching row: a server-side inconsistency
			h.logger.WithField(userIDKey, userID).Error("update target for unknown user")
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			h.logger.WithError(err).Error("update target")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "target updated successfully",
		"user": userResponse{
			ID:       user.ID,
			Username: user.Username,
			Target:   user.Target,
		},
	})
}

func userToResponse(user *domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Target:    user.Target,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

func fieldErrors(errs validator.ValidationErrors) []fieldError {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]fieldError, 0, len(errs))
	for _, field := range fields {
		out = append(out, fieldError{Field: field, Message: errs[field]})
	}
	return out
}
