package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/bigkaa/manual-console/internal/domain/model"
)

// uploadResponse — ответ POST /pdf-manuals.
type uploadResponse struct {
	Data    model.UploadResult `json:"data"`
	Message string             `json:"message,omitempty"`
}

// UploadManuals загружает PDF-файлы с общими метаданными.
// POST /pdf-manuals (multipart: files + поля метаданных).
func (c *Client) UploadManuals(ctx context.Context, files []model.UploadFile, meta model.UploadMetadata) (*model.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename=%q`, f.Name))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/pdf"
		}
		header.Set("Content-Type", contentType)

		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("создание части %s: %w", f.Name, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("запись части %s: %w", f.Name, err)
		}
	}

	// Поля метаданных в фиксированном порядке
	for _, field := range model.UploadFields {
		if err := mw.WriteField(field, meta[field]); err != nil {
			return nil, fmt.Errorf("запись поля %s: %w", field, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("завершение multipart: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/pdf-manuals", &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}

	var resp uploadResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
