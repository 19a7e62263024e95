package controllers

import (
	"CodeCollab/services/messages"
	"CodeCollab/services/rooms"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// @Summary Chat history
// @Description Latest chat messages of a room, oldest first. Without roomId the global chat is returned.
// @Tags chat
// @Produce json
// @Param roomId query string false "Room code"
// @Param limit query int false "Maximum number of messages (default 100)"
// @Success 200 {array} postgres.ChatMessage
// @Failure 400 {object} object{error=string}
// @Router /api/messages [get]
func GetMessages(store messages.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := messages.DefaultHistoryLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		history, err := store.History(c.Request.Context(), rooms.NormalizeCode(c.Query("roomId")), limit)
		if err != nil {
			log.Printf("[CHAT-ERROR] Reading history: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading chat history"})
			return
		}
		c.JSON(http.StatusOK, history)
	}
}
