package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-restaurant-pos/internal/apperr"
	"github.com/imrishuroy/go-restaurant-pos/internal/storage"
	"github.com/imrishuroy/go-restaurant-pos/internal/users"
	"github.com/imrishuroy/go-restaurant-pos/internal/validation"
)

type UserService interface {
	TokenVerifier
	Register(ctx context.Context, in users.RegisterInput) (*users.User, error)
	Login(ctx context.Context, email, password string) (*users.User, string, error)
	CurrentUser(ctx context.Context, id int64) (*users.User, error)
}

type UsersConfig struct {
	Service UserService
	Images  storage.ImageStore
	Logger  *slog.Logger
}

type usersHandler struct {
	svc    UserService
	images storage.ImageStore
	log    *slog.Logger
	v      *validatorv10.Validate
}

func RegisterUsersRoutes(r gin.IRouter, cfg UsersConfig) {
	h := &usersHandler{svc: cfg.Service, images: cfg.Images, log: cfg.Logger, v: validation.New()}

	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.GET("/verify-token", h.verifyToken)
	r.GET("/current-user", RequireAuth(cfg.Service), h.currentUser)
	r.POST("/api/auth/logout", h.logout)
}

func (h *usersHandler) register(c *gin.Context) {
	var form validation.RegisterForm
	if err := validation.BindFormAndValidate(c, &form, h.v); err != nil {
		return
	}
	fh, err := c.FormFile("avatar")
	if err != nil {
		writeError(c, h.log, apperr.Validation("All fields are required."))
		return
	}
	avatarURL, err := saveUpload(c, h.images, fh)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	u, err := h.svc.Register(c.Request.Context(), users.RegisterInput{
		FullName:    form.FullName,
		Username:    form.Username,
		Email:       form.Email,
		Password:    form.Password,
		Role:        form.Role,
		AvatarURL:   avatarURL,
		Address:     form.Address,
		PhoneNumber: form.PhoneNumber,
	})
	if err != nil {
		discardUpload(c.Request.Context(), h.images, h.log, avatarURL)
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "data": u})
}

func (h *usersHandler) login(c *gin.Context) {
	var req validation.LoginRequest
	if err := validation.BindAndValidate(c, &req, h.v); err != nil {
		return
	}
	u, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": u, "token": token})
}

func (h *usersHandler) verifyToken(c *gin.Context) {
	tok, ok := bearerToken(c)
	if !ok {
		writeError(c, h.log, apperr.Unauthenticated("Authorization header missing or malformed"))
		return
	}
	claims, err := h.svc.VerifyToken(tok)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"authenticated": false,
			"error":         apperr.Code(err),
			"message":       "Invalid or expired token",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true, "user": claims})
}

func (h *usersHandler) currentUser(c *gin.Context) {
	claims, ok := c.MustGet(claimsKey).(*users.Claims)
	if !ok {
		writeError(c, h.log, errors.New("claims missing from context"))
		return
	}
	u, err := h.svc.CurrentUser(c.Request.Context(), claims.UserID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// logout is stateless: tokens expire on their own.
func (h *usersHandler) logout(c *gin.Context) {
	c.SetCookie("authToken", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
