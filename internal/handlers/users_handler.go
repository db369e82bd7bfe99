package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/bookcourier/server/internal/users"
	"github.com/bookcourier/server/internal/validation"
)

func registerUserRoutes(r *gin.Engine, cfg Config, v *validatorv10.Validate) {
	r.POST("/users", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.CreateUserRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}

		created, err := cfg.Users.CreateIfNotExists(ctx, users.User{
			Email:    req.Email,
			Name:     req.Name,
			PhotoURL: req.PhotoURL,
		})
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("user registration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration_failed"})
			return
		}
		if !created {
			role := users.DefaultRole
			existing, err := cfg.Users.Get(ctx, req.Email)
			if err != nil {
				cfg.Logger.Error().Err(err).Msg("user lookup failed")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "registration_failed"})
				return
			}
			if existing != nil {
				role = existing.Role
			}
			c.JSON(http.StatusOK, gin.H{"message": "User already exist", "role": role})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"email": req.Email, "role": users.DefaultRole})
	})
}
