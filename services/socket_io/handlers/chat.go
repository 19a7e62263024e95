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

// HandleAddUser announces the username (and room) of the connection, see collab.Service.AddUser
func HandleAddUser(svc *collab.Service, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		var ev models.ChatEvent
		if err := socketio_utils.DecodeArg(args, &ev); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		if err := svc.AddUser(context.Background(), string(client.Id()), ev); err != nil {
			log.Printf("[JOIN-ERROR] Socket %s: %v", client.Id(), err)
			client.Emit("error", gin.H{"error": err.Error()})
		}
	}
}

func HandleSendMessage(svc *collab.Service, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		var ev models.ChatEvent
		if err := socketio_utils.DecodeArg(args, &ev); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		if err := svc.SendMessage(context.Background(), string(client.Id()), ev); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
		}
	}
}

func HandleLeaveRoom(svc *collab.Service, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		var ev models.ChatEvent
		if len(args) > 0 {
			if err := socketio_utils.DecodeArg(args, &ev); err != nil {
				client.Emit("error", gin.H{"error": err.Error()})
				return
			}
		}
		if err := svc.LeaveRoom(context.Background(), string(client.Id()), ev); err != nil {
			log.Printf("[LEAVE-ERROR] Socket %s: %v", client.Id(), err)
			client.Emit("error", gin.H{"error": err.Error()})
		}
	}
}
