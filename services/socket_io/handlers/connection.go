package handlers

import (
	"CodeCollab/services/collab"
	socketio_types "CodeCollab/services/socket_io/types"
	"log"

	"github.com/zishang520/socket.io/v2/socket"
)

// HandleDisconnect hands the closed connection to the collab service, which
// publishes the LEAVE and kills any running program.
func HandleDisconnect(svc *collab.Service, client *socket.Socket, sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		id := string(client.Id())
		log.Printf("[DISCONNECT] Socket %s closed: %v", id, args)
		svc.Disconnect(id)
		sio.RemoveConnection(id)
	}
}
