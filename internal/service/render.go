package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"invoicepad/internal/clients"
	"invoicepad/internal/domain"
)

const (
	renderSetKey = "render_ids"
	renderTTL    = 20 * time.Minute

	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// RenderStatus tracks one document render from enqueue to download URL.
type RenderStatus struct {
	Key       string    `json:"key"`
	Username  string    `json:"username"`
	InvoiceID string    `json:"invoice_id"`
	Format    string    `json:"format"`
	Progress  float64   `json:"progress"`
	FileURL   *string   `json:"file_url"`
	Error     *string   `json:"error,omitempty"`
	Created   time.Time `json:"created_at"`
}

// RenderService turns stored invoices into downloadable documents in the
// background, tracking progress in redis and notifying over websocket.
type RenderService struct {
	invoices InvoiceRepository
	redis    *clients.RedisClient
	storage  *clients.StorageClient
	ws       *clients.WebSocketClient
	s3       *clients.S3Client
}

func NewRenderService(invoices InvoiceRepository, redis *clients.RedisClient, storage *clients.StorageClient, ws *clients.WebSocketClient) *RenderService {
	return &RenderService{invoices: invoices, redis: redis, storage: storage, ws: ws}
}

// WithS3 routes finished documents to object storage; download links
// become presigned URLs instead of local file links.
func (s *RenderService) WithS3(s3 *clients.S3Client) *RenderService {
	s.s3 = s3
	return s
}

func (s *RenderService) saveStatus(ctx context.Context, st *RenderStatus) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, st.Key, string(data), renderTTL); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, renderSetKey, st.Key)
}

// StartRender loads the invoice, enqueues the render and returns its id.
// The caller polls GetRender or listens on the websocket for completion.
func (s *RenderService) StartRender(ctx context.Context, username, invoiceID, format string) (string, error) {
	if format != FormatXLSX && format != FormatPDF {
		return "", fmt.Errorf("unsupported render format %q", format)
	}

	inv, err := s.invoices.Get(ctx, username, invoiceID)
	if err != nil {
		return "", err
	}

	renderID := fmt.Sprintf("renders:%s", uuid.NewString())
	status := &RenderStatus{
		Key:       renderID,
		Username:  username,
		InvoiceID: invoiceID,
		Format:    format,
		Progress:  0,
		Created:   time.Now(),
	}
	_ = s.saveStatus(ctx, status)

	// The request context dies with the response; the render outlives it.
	go s.runRender(context.Background(), status, inv)

	return renderID, nil
}

func (s *RenderService) runRender(ctx context.Context, status *RenderStatus, inv domain.Invoice) {
	fail := func(err error) {
		errStr := err.Error()
		log.Printf("render %s: %v", status.Key, err)
		status.Error = &errStr
		status.Progress = 100
		_ = s.saveStatus(ctx, status)
		if s.ws != nil {
			_ = s.ws.NotifyRenderFailed(ctx, status.Username, status.Key, errStr)
		}
	}

	status.Progress = 25
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyRenderProgress(ctx, status.Username, status.Key, 25, "generating")
	}

	var (
		data []byte
		err  error
	)
	switch status.Format {
	case FormatXLSX:
		data, err = buildWorkbook(inv)
	case FormatPDF:
		data, err = buildPDF(inv)
	default:
		err = fmt.Errorf("unsupported render format %q", status.Format)
	}
	if err != nil {
		fail(fmt.Errorf("generate document: %w", err))
		return
	}

	if s.storage == nil {
		fail(errors.New("render storage not configured"))
		return
	}

	status.Progress = 75
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyRenderProgress(ctx, status.Username, status.Key, 75, "saving")
	}

	fileName := renderFileName(inv, status.Format)
	savedName, err := s.storage.Save(ctx, fileName, data)
	if err != nil {
		fail(fmt.Errorf("save document: %w", err))
		return
	}

	url := s.storage.GetURL(savedName)
	if s.s3 != nil {
		contentType := "application/pdf"
		if status.Format == FormatXLSX {
			contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		}
		if key, s3Err := s.s3.Upload(ctx, fileName, contentType, data); s3Err != nil {
			log.Printf("render %s: s3 upload failed, serving local file: %v", status.Key, s3Err)
		} else if presigned, urlErr := s.s3.GetTemporaryURL(ctx, key, renderTTL); urlErr == nil {
			url = presigned
		}
	}
	status.FileURL = &url
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyRenderProgress(ctx, status.Username, status.Key, 100, "ready")
		_ = s.ws.NotifyRenderComplete(ctx, status.Username, status.Key, url, fileName)
	}
}

func renderFileName(inv domain.Invoice, format string) string {
	id := inv.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("invoice_%s_%s.%s", id, time.Now().Format("20060102_150405"), format)
}

// GetRenders lists the user's render statuses, newest first.
func (s *RenderService) GetRenders(ctx context.Context, username string) ([]RenderStatus, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, renderSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get render keys: %w", err)
	}

	var statuses []RenderStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue
		}

		var status RenderStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}

		if status.Username == username {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	return statuses, nil
}

func (s *RenderService) GetRender(ctx context.Context, renderID, username string) (*RenderStatus, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, renderID)
	if err != nil {
		return nil, errors.New("render not found")
	}

	var status RenderStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse render status: %w", err)
	}

	if status.Username != username {
		return nil, errors.New("render not found")
	}

	return &status, nil
}
