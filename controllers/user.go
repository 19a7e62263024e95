package controllers

import (
	"CodeCollab/middleware"
	models "CodeCollab/models/postgres"
	"CodeCollab/services/users"
	"errors"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type credentials struct {
	Username    string `json:"username" form:"username"`
	Password    string `json:"password" form:"password"`
	DisplayName string `json:"displayName" form:"displayName"`
}

func authResponse(message string, user *models.User, token string) gin.H {
	return gin.H{
		"success":     true,
		"message":     message,
		"username":    user.Username,
		"displayName": user.DisplayName,
		"token":       token,
	}
}

// startSession stores the username in the cookie session and issues a JWT
func startSession(c *gin.Context, user *models.User) (string, bool) {
	session := sessions.Default(c)
	session.Set(middleware.UserKey, user.Username)
	if err := session.Save(); err != nil {
		log.Printf("[USER-ERROR] Saving session of %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "No session!"})
		return "", false
	}
	token, err := middleware.GenerateToken(user.Username)
	if err != nil {
		log.Printf("[USER-ERROR] Signing token of %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error generating token"})
		return "", false
	}
	return token, true
}

// @Summary Registers a user
// @Tags users
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body credentials true "username, password and optional displayName"
// @Success 200 {object} object{success=bool,message=string,username=string,displayName=string,token=string}
// @Failure 400 {object} object{success=bool,message=string}
// @Failure 409 {object} object{success=bool,message=string}
// @Router /signup [post]
func SignUp(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentials
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
			return
		}
		user, err := svc.SignUp(c.Request.Context(), req.Username, req.Password, req.DisplayName)
		switch {
		case errors.Is(err, users.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		case errors.Is(err, users.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "Username already taken"})
			return
		case err != nil:
			log.Printf("[USER-ERROR] Sign up: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error creating user"})
			return
		}

		token, ok := startSession(c, user)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, authResponse("User registered successfully", user, token))
	}
}

// @Summary Logs a user in
// @Description Opens a cookie session and returns a bearer token
// @Tags users
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body credentials true "username and password"
// @Success 200 {object} object{success=bool,message=string,username=string,displayName=string,token=string}
// @Failure 400 {object} object{success=bool,message=string}
// @Failure 401 {object} object{success=bool,message=string}
// @Router /login [post]
func Login(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentials
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
			return
		}
		user, err := svc.Login(c.Request.Context(), req.Username, req.Password)
		switch {
		case errors.Is(err, users.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Parameters can't be empty"})
			return
		case errors.Is(err, users.ErrInvalidLogin):
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid username or password!"})
			return
		case err != nil:
			log.Printf("[USER-ERROR] Login: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error logging in"})
			return
		}

		token, ok := startSession(c, user)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, authResponse("Login successful", user, token))
	}
}

// Logout from server, deletes the session associated with the username key
// @Summary Logs out
// @Tags users
// @Produce json
// @Success 200 {object} object{message=string}
// @Failure 400 {object} object{error=string}
// @Router /auth/logout [delete]
// @Security ApiKeyAuth
func Logout(c *gin.Context) {
	session := sessions.Default(c)
	// There is no session for the user, won't delete nothing
	if session.Get(middleware.UserKey) == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session token"})
		return
	}

	session.Delete(middleware.UserKey)
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// @Summary Current user
// @Tags users
// @Produce json
// @Param Authorization header string false "Bearer JWT token"
// @Success 200 {object} postgres.User
// @Failure 401 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /auth/me [get]
// @Security ApiKeyAuth
func GetCurrentUser(svc *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := svc.Get(c.Request.Context(), middleware.CurrentUser(c))
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			log.Printf("[USER-ERROR] Reading user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading user"})
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
