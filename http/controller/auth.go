package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dedilute/catalog-backend/entity"
	"github.com/dedilute/catalog-backend/http/controller/dto"
	"github.com/dedilute/catalog-backend/repository"
	"github.com/dedilute/catalog-backend/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

var errUserExists = errors.New("user already exists")

func (ctrl *Controller) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Auth] Invalid register payload: %v", err)
		utils.JSON400(c, "Invalid register payload: "+err.Error())
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Auth] Failed to hash password")
		utils.JSON500(c, "Internal server error.")
		return
	}

	user := &entity.User{Email: email, PasswordHash: string(hash), DisplayName: req.DisplayName}
	err = ctrl.Repository.Transaction(ctx, func(tx *repository.Repository) error {
		exists, err := tx.UserRepo.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return errUserExists
		}
		if err := tx.UserRepo.Create(ctx, user); err != nil {
			return err
		}
		// empty permission row, assigned later by an operator
		return tx.PermissionRepo.Create(ctx, &entity.Permission{UserID: user.ID})
	})
	if errors.Is(err, errUserExists) {
		utils.JSON400(c, "User already exists.")
		return
	}
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Auth] Failed to register %s", email)
		utils.JSON500(c, "Internal server error.")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Auth] Registered user %d", user.ID)
	utils.JSON201(c, gin.H{
		"message": "User registered successfully.",
		"user":    user,
	})
}

func (ctrl *Controller) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid login payload: "+err.Error())
		return
	}

	user, err := ctrl.Repository.UserRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, repository.ErrNotFound) {
		utils.JSON401(c, "Invalid credentials.")
		return
	}
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Auth] Failed to load user for login")
		utils.JSON500(c, "Internal server error.")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		utils.JSON401(c, "Invalid credentials.")
		return
	}

	cfg := ctrl.Config.EnvConfig
	token, err := utils.GenerateToken(user.ID, user.Email, cfg)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Auth] Failed to sign token for user %d", user.ID)
		utils.JSON500(c, "Internal server error.")
		return
	}

	ctrl.setSessionCookie(c, token, cfg.JWT.Expire)
	utils.JSON200(c, gin.H{
		"message": "Login successful.",
		"user":    dto.UserResponse{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName},
	})
}

func (ctrl *Controller) Logout(c *gin.Context) {
	ctrl.setSessionCookie(c, "", -1)
	utils.JSON200(c, gin.H{"message": "Logged out successfully."})
}

// CheckPermission answers whether the caller holds the permission named in the body.
func (ctrl *Controller) CheckPermission(c *gin.Context) {
	var req dto.PermissionCheckRequest
	_ = c.ShouldBindJSON(&req)
	if strings.TrimSpace(req.Permission) == "" {
		utils.JSON400(c, "Permission code is required")
		return
	}
	ctrl.answerPermission(c, req.Permission)
}

func (ctrl *Controller) CheckPermissionByCode(c *gin.Context) {
	ctrl.answerPermission(c, c.Param("code"))
}

func (ctrl *Controller) answerPermission(c *gin.Context, code string) {
	ctx := c.Request.Context()

	name, ok := ctrl.Config.EnvConfig.Permission.Mapping[strings.TrimSpace(code)]
	if !ok || name == "" {
		utils.JSON400(c, "Unknown permission code")
		return
	}
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized")
		return
	}

	has, err := ctrl.Repository.PermissionRepo.HasPermission(ctx, userID, name)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Auth] Permission lookup failed for user %d", userID)
		utils.JSON500(c, "Internal Server Error")
		return
	}
	utils.JSON200(c, gin.H{"hasPermission": has})
}

func (ctrl *Controller) Me(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized")
		return
	}
	user, err := ctrl.Repository.UserRepo.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		utils.JSON404(c, "User not found")
		return
	}
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Auth] Failed to load user %d", userID)
		utils.JSON500(c, "Internal server error.")
		return
	}

	utils.JSON200(c, gin.H{"user": dto.UserResponse{ID: user.ID, Email: user.Email, DisplayName: user.DisplayName}})
}

// setSessionCookie writes the HttpOnly session cookie; maxAge < 0 clears it.
func (ctrl *Controller) setSessionCookie(c *gin.Context, token string, maxAge int) {
	cfg := ctrl.Config.EnvConfig
	sameSite := http.SameSiteLaxMode
	if cfg.IsProduction() {
		sameSite = http.SameSiteStrictMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(cfg.JWT.CookieName, token, maxAge, "/", "", cfg.IsProduction(), true)
}
