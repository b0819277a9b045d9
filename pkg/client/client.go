// Package client habla con vidqueued por su Unix socket.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/elsanchez/vidqueue/internal/domain"
)

// defaultTimeout aplica cuando el contexto no trae deadline
const defaultTimeout = 30 * time.Second

// Client representa un cliente del daemon
type Client struct {
	socketPath string
}

// NewClient crea un cliente para el socket indicado
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// SocketPath devuelve el socket usado por el cliente
func (c *Client) SocketPath() string { return c.socketPath }

// Request representa una petición al daemon
type Request struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response representa una respuesta del daemon
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Send envía una petición al daemon y retorna la respuesta
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to daemon: %w (is vidqueued running?)", err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	_ = conn.SetDeadline(deadline)

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// call envía action con payload y decodifica Data en out (si no es nil)
func (c *Client) call(ctx context.Context, action string, payload any, out any) error {
	req := &Request{Action: action}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		req.Payload = raw
	}

	resp, err := c.Send(ctx, req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s failed: %s", action, resp.Error)
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// Ping verifica que el daemon responde
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, "ping", nil, nil)
}

// Status son los flags del engine
type Status struct {
	Fetching         bool   `json:"fetching"`
	Downloading      bool   `json:"downloading"`
	ProgramExists    bool   `json:"program_exists"`
	ActiveID         int64  `json:"active_id,omitempty"`
	Pending          int    `json:"pending"`
	Videos           int    `json:"videos"`
	HistoryExhausted bool   `json:"history_exhausted"`
	LastEventSeq     uint64 `json:"last_event_seq"`
}

// Status consulta el estado del engine
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var status Status
	if err := c.call(ctx, "status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// FetchResult indica si se lanzó yt-dlp
type FetchResult struct {
	Started  bool   `json:"started"`
	Platform string `json:"platform"`
}

// Fetch pide los metadatos de una URL. Los videos aparecen en List al llegar.
func (c *Client) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	var result FetchResult
	if err := c.call(ctx, "fetch", map[string]string{"url": url}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// List devuelve la colección del más viejo al más nuevo
func (c *Client) List(ctx context.Context) ([]domain.VideoSnapshot, bool, error) {
	var result struct {
		Videos    []domain.VideoSnapshot `json:"videos"`
		Exhausted bool                   `json:"exhausted"`
	}
	if err := c.call(ctx, "list", nil, &result); err != nil {
		return nil, false, err
	}
	return result.Videos, result.Exhausted, nil
}

func (c *Client) videoAction(ctx context.Context, action string, payload any) (*domain.VideoSnapshot, error) {
	var snapshot domain.VideoSnapshot
	if err := c.call(ctx, action, payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Download encola un video
func (c *Client) Download(ctx context.Context, id int64) (*domain.VideoSnapshot, error) {
	return c.videoAction(ctx, "download", map[string]int64{"id": id})
}

// Cancel cancela un video en cola o descargando
func (c *Client) Cancel(ctx context.Context, id int64) (*domain.VideoSnapshot, error) {
	return c.videoAction(ctx, "cancel", map[string]int64{"id": id})
}

// SelectOptions cambia la intención de descarga; nil deja el valor actual
type SelectOptions struct {
	ID        int64   `json:"id"`
	Format    *string `json:"format,omitempty"`
	Thumbnail *bool   `json:"thumbnail,omitempty"`
}

// Select cambia formato y/o miniatura de un video
func (c *Client) Select(ctx context.Context, opts SelectOptions) (*domain.VideoSnapshot, error) {
	return c.videoAction(ctx, "select", opts)
}

// Remove cancela y borra un video
func (c *Client) Remove(ctx context.Context, id int64) error {
	return c.call(ctx, "remove", map[string]int64{"id": id}, nil)
}

// RemoveAll vacía la colección y el historial
func (c *Client) RemoveAll(ctx context.Context) (int, error) {
	var result struct {
		Removed int `json:"removed"`
	}
	if err := c.call(ctx, "remove_all", nil, &result); err != nil {
		return 0, err
	}
	return result.Removed, nil
}

// More carga la siguiente página del historial
func (c *Client) More(ctx context.Context) (loaded int, exhausted bool, err error) {
	var result struct {
		Loaded    int  `json:"loaded"`
		Exhausted bool `json:"exhausted"`
	}
	if err := c.call(ctx, "more", nil, &result); err != nil {
		return 0, false, err
	}
	return result.Loaded, result.Exhausted, nil
}

// Event es una entrada del journal del daemon
type Event struct {
	Seq        uint64    `json:"seq"`
	Time       time.Time `json:"time"`
	Kind       string    `json:"kind"`
	VideoID    int64     `json:"video_id,omitempty"`
	Invocation string    `json:"invocation,omitempty"`
	Message    string    `json:"message,omitempty"`
	Flag       bool      `json:"flag,omitempty"`
}

// Events devuelve los eventos con seq mayor que after
func (c *Client) Events(ctx context.Context, after uint64) ([]Event, error) {
	var result struct {
		Events []Event `json:"events"`
	}
	if err := c.call(ctx, "events", map[string]uint64{"after": after}, &result); err != nil {
		return nil, err
	}
	return result.Events, nil
}

// ReloadCookies hace que el daemon relea las cuentas activas
func (c *Client) ReloadCookies(ctx context.Context) (int, error) {
	var result struct {
		Platforms int `json:"platforms"`
	}
	if err := c.call(ctx, "cookies_reload", nil, &result); err != nil {
		return 0, err
	}
	return result.Platforms, nil
}
