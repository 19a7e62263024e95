package handlers

import (
	"CodeCollab/services/collab"
	socketio_utils "CodeCollab/services/socket_io/utils"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

type executeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type inputRequest struct {
	Input string `json:"input"`
}

// HandleExecute compiles and runs code for this connection. Output arrives on exec.<socket id>.
func HandleExecute(svc *collab.Service, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		var req executeRequest
		if err := socketio_utils.DecodeArg(args, &req); err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		if req.Language == "" {
			req.Language = "cpp"
		}
		log.Printf("[EXEC] Socket %s requested a %s run", client.Id(), req.Language)
		svc.RunCode(string(client.Id()), req.Language, req.Code)
	}
}

// HandleInput forwards one line of stdin. Accepts a bare string or {"input": "..."}.
func HandleInput(svc *collab.Service, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "missing input"})
			return
		}
		var text string
		if s, ok := args[0].(string); ok {
			text = s
		} else {
			var req inputRequest
			if err := socketio_utils.DecodeArg(args, &req); err != nil {
				client.Emit("error", gin.H{"error": err.Error()})
				return
			}
			text = req.Input
		}
		if err := svc.SendInput(string(client.Id()), text); err != nil {
			log.Printf("[EXEC-ERROR] Forwarding input of %s: %v", client.Id(), err)
			client.Emit("error", gin.H{"error": "the program is no longer reading input"})
		}
	}
}
