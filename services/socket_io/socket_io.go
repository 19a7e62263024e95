package socket_io

import (
	"CodeCollab/services/collab"
	"CodeCollab/services/socket_io/handlers"
	socketio_types "CodeCollab/services/socket_io/types"
	socketio_utils "CodeCollab/services/socket_io/utils"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	eio_log "github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

// Start mounts the socket.io endpoint on router and wires every client event to svc
func (sio *MySocketServer) Start(router *gin.Engine, svc *collab.Service, debug bool) {
	eio_log.DEBUG = debug
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	// KEY: the map must be initialized before the first connection
	sio.Connections = make(map[string]*socket.Socket)
	server := (*socketio_types.SocketServer)(sio)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)
		id := string(client.Id())

		username, err := socketio_utils.HandshakeUsername(client)
		if err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			client.Disconnect(true)
			return
		}

		server.AddConnection(id, client)
		svc.Connect(id, socketio_types.SocketSink{Client: client}, username)
		client.Emit("connected", gin.H{"connectionId": id, "username": username})

		// Explicit channel subscriptions (room.chat.<code>, room.code.<code>, global.chat)
		client.On("subscribe", handlers.HandleSubscribe(svc, client))
		client.On("unsubscribe", handlers.HandleUnsubscribe(svc, client))

		// Chat
		client.On("chat.addUser", handlers.HandleAddUser(svc, client))
		client.On("chat.sendMessage", handlers.HandleSendMessage(svc, client))
		client.On("chat.leaveRoom", handlers.HandleLeaveRoom(svc, client))

		// Shared editor
		client.On("code.sync", handlers.HandleCodeSync(svc, client))

		// Interactive execution
		client.On("compiler.execute", handlers.HandleExecute(svc, client))
		client.On("compiler.input", handlers.HandleInput(svc, client))

		// NOTE: publishes LEAVE, kills the running program and removes the connection from the map
		client.On("disconnect", handlers.HandleDisconnect(svc, client, server))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	log.Println("Socket server started")
}

// Close shuts the socket.io server down, disconnecting every client
func (sio *MySocketServer) Close() {
	if sio.Sio_server != nil {
		sio.Sio_server.Close(nil)
	}
}
