package handlers

import (
	"CodeCollab/services/collab"
	socketio_utils "CodeCollab/services/socket_io/utils"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

type channelRequest struct {
	Channel string `json:"channel"`
}

func decodeChannel(args []interface{}) (string, error) {
	if len(args) > 0 {
		if s, ok := args[0].(string); ok {
			return s, nil
		}
	}
	var req channelRequest
	if err := socketio_utils.DecodeArg(args, &req); err != nil {
		return "", err
	}
	return req.Channel, nil
}

func HandleSubscribe(svc *collab.Service, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		channel, err := decodeChannel(args)
		if err == nil {
			err = svc.Subscribe(string(client.Id()), channel)
		}
		if err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		client.Emit("subscribed", gin.H{"channel": channel})
	}
}

func HandleUnsubscribe(svc *collab.Service, client *socket.Socket) func(args ...interface{}) {
	return func(args ...interface{}) {
		channel, err := decodeChannel(args)
		if err != nil {
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}
		svc.Unsubscribe(string(client.Id()), channel)
	}
}
