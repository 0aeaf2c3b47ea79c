package clients

import (
	"context"
	"fmt"

	ws "invoicepad/internal/transport/websocket"
)

type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func (c *WebSocketClient) NotifyRenderProgress(
	ctx context.Context,
	username string,
	renderID string,
	progress float64,
	stage string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("render_progress#%s", username)
	data := map[string]interface{}{
		"id":       renderID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	message := &ws.Message{
		Type:    "render_progress",
		Channel: channel,
		Data:    data,
	}

	c.hub.Broadcast(username, message)
	return nil
}

func (c *WebSocketClient) NotifyRenderComplete(
	ctx context.Context,
	username string,
	renderID string,
	url string,
	filename string,
) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("render_complete#%s", username)
	message := &ws.Message{
		Type:    "render_complete",
		Channel: channel,
		Data: map[string]interface{}{
			"id":       renderID,
			"url":      url,
			"filename": filename,
			"username": username,
		},
	}

	c.hub.Broadcast(username, message)
	return nil
}

// NotifyRenderFailed notifies a user that a document render failed.
func (c *WebSocketClient) NotifyRenderFailed(ctx context.Context, username string, renderID string, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	channel := fmt.Sprintf("render_failed#%s", username)
	message := &ws.Message{
		Type:    "render_failed",
		Channel: channel,
		Data: map[string]interface{}{
			"id":       renderID,
			"message":  errMsg,
			"username": username,
		},
	}

	c.hub.Broadcast(username, message)
	return nil
}
