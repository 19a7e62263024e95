package handlers

import (
	"CodeCollab/models"
	"CodeCollab/services/collab"
	socketio_utils "CodeCollab/services/socket_io/utils"
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleCodeSync relays editor events to the room, storing full buffer updates
func HandleCodeSync(svc *collab.Service, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		var ev models.CodeSyncEvent
		if err := socketio_utils.DecodeArg(args, &ev); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		if err := svc.SyncCode(context.Background(), string(client.Id()), ev); err != nil {
			log.Printf("[SYNC-ERROR] Socket %s: %v", client.Id(), err)
			client.Emit("error", gin.H{"error": err.Error()})
		}
	}
}
