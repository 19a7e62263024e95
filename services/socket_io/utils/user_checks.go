package socketio_utils

import (
	"CodeCollab/middleware"
	"encoding/json"
	"fmt"
	"log"

	"github.com/zishang520/socket.io/v2/socket"
)

// HandshakeUsername returns the username carried by an optional JWT in the
// handshake auth payload ({"authorization": "Bearer ..."}). Anonymous
// connections get "" and announce their name later with chat.addUser.
func HandshakeUsername(client *socket.Socket) (string, error) {
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		return "", nil
	}
	token, ok := authData["authorization"].(string)
	if !ok || token == "" {
		return "", nil
	}
	username, err := middleware.ParseToken(token)
	if err != nil {
		log.Printf("[AUTH-ERROR] Socket %s sent an invalid token: %v", client.Id(), err)
		return "", fmt.Errorf("authentication failed: invalid JWT")
	}
	return username, nil
}

// DecodeArg converts the first event argument, as decoded by socket.io, into dst
func DecodeArg(args []interface{}, dst any) error {
	if len(args) < 1 || args[0] == nil {
		return fmt.Errorf("missing event payload")
	}
	var data []byte
	switch v := args[0].(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("invalid event payload: %v", err)
		}
		data = encoded
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid event payload: %v", err)
	}
	return nil
}
