package controllers

import (
	"CodeCollab/services/rooms"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type createRoomRequest struct {
	Name            string `json:"name"`
	Password        string `json:"password"`
	CreatorUsername string `json:"creatorUsername"`
}

type joinRoomRequest struct {
	RoomID   string `json:"roomId"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type leaveRoomRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// roomStatus maps room errors to their HTTP status
func roomStatus(err error) int {
	switch {
	case errors.Is(err, rooms.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, rooms.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, rooms.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rooms.ErrInactive):
		return http.StatusGone
	}
	return http.StatusInternalServerError
}

func roomError(c *gin.Context, err error) {
	status := roomStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		c.Error(err)
		message = "Internal server error"
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

func roomResponse(message string, view *rooms.RoomView) gin.H {
	h := gin.H{
		"success":         true,
		"message":         message,
		"roomId":          view.RoomID,
		"name":            view.Name,
		"creatorUsername": view.CreatorUsername,
		"activeUsers":     view.ActiveUsers,
		"currentCode":     view.CurrentCode,
		"currentLanguage": view.CurrentLanguage,
		"isActive":        view.IsActive,
		"createdAt":       view.CreatedAt,
		"lastActivity":    view.LastActivity,
	}
	if view.Password != "" {
		h["password"] = view.Password
	}
	return h
}

// @Summary Creates a room
// @Description Creates a password protected room, the creator is its first member. The password is only echoed here.
// @Tags rooms
// @Accept json
// @Produce json
// @Param request body createRoomRequest true "Room data"
// @Success 200 {object} object{success=bool,message=string,roomId=string,password=string}
// @Failure 400 {object} object{success=bool,message=string}
// @Router /api/rooms/create [post]
func CreateRoom(coordinator *rooms.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
			return
		}
		view, err := coordinator.CreateRoom(c.Request.Context(), req.Name, req.Password, req.CreatorUsername)
		if err != nil {
			roomError(c, err)
			return
		}
		c.JSON(http.StatusOK, roomResponse("Room created successfully", view))
	}
}

// @Summary Joins a room
// @Description Adds the user to the room members if the password matches
// @Tags rooms
// @Accept json
// @Produce json
// @Param request body joinRoomRequest true "Join data"
// @Success 200 {object} object{success=bool,message=string,roomId=string,activeUsers=[]string}
// @Failure 400 {object} object{success=bool,message=string}
// @Failure 401 {object} object{success=bool,message=string}
// @Failure 404 {object} object{success=bool,message=string}
// @Failure 410 {object} object{success=bool,message=string}
// @Router /api/rooms/join [post]
func JoinRoom(coordinator *rooms.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req joinRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
			return
		}
		view, err := coordinator.JoinRoom(c.Request.Context(), req.RoomID, req.Password, req.Username)
		if err != nil {
			roomError(c, err)
			return
		}
		c.JSON(http.StatusOK, roomResponse("Joined room successfully", view))
	}
}

// @Summary Leaves a room
// @Tags rooms
// @Accept json
// @Produce json
// @Param request body leaveRoomRequest true "Leave data"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 404 {object} object{success=bool,message=string}
// @Router /api/rooms/leave [post]
func LeaveRoom(coordinator *rooms.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req leaveRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body"})
			return
		}
		if err := coordinator.LeaveRoom(c.Request.Context(), req.RoomID, req.Username); err != nil {
			roomError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Left room successfully"})
	}
}

// @Summary Gives info of a room
// @Description Current members, code and language of a room. The password is never returned.
// @Tags rooms
// @Produce json
// @Param id path string true "Room code"
// @Success 200 {object} object{success=bool,roomId=string,currentCode=string}
// @Failure 404 {object} object{success=bool,message=string}
// @Router /api/rooms/{id} [get]
func GetRoom(coordinator *rooms.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := coordinator.GetRoom(c.Request.Context(), rooms.NormalizeCode(c.Param("id")))
		if err != nil {
			roomError(c, err)
			return
		}
		c.JSON(http.StatusOK, roomResponse("Room found", view))
	}
}

// @Summary Counts the members of a room
// @Tags rooms
// @Produce json
// @Param id path string true "Room code"
// @Success 200 {object} rooms.UsersCount
// @Failure 404 {object} object{success=bool,message=string}
// @Router /api/rooms/{id}/users-count [get]
func GetUsersCount(coordinator *rooms.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := coordinator.GetUsersCount(c.Request.Context(), rooms.NormalizeCode(c.Param("id")))
		if err != nil {
			roomError(c, err)
			return
		}
		c.JSON(http.StatusOK, count)
	}
}
