package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/vishalseelam/ElectrocardiogramRiskEngine/model"
)

// apiClient 调用 /api/analyze 的最小客户端
type apiClient struct {
	url    string
	client *http.Client
}

func newAPIClient(url string) *apiClient {
	return &apiClient{url: url, client: &http.Client{}}
}

// Analyze 上传图片。兜底响应（statusCode "500"）同样返回信封。
func (c *apiClient) Analyze(ctx context.Context, imagePath string) (*model.ResponseEnvelope, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(imagePath)))
	header.Set("Content-Type", contentTypeFor(imagePath))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env model.ResponseEnvelope
	if err := json.Unmarshal(respBody, &env); err == nil && env.StatusCode != "" {
		return &env, nil
	}

	var detail model.ErrorResponse
	if err := json.Unmarshal(respBody, &detail); err == nil && detail.Detail != "" {
		return nil, fmt.Errorf("API returned %d: %s", resp.StatusCode, detail.Detail)
	}
	return nil, fmt.Errorf("API returned %d: %s", resp.StatusCode, string(respBody))
}

// contentTypeFor 按扩展名推断 MIME 类型，未知时使用 application/octet-stream
func contentTypeFor(path string) string {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if ct == "" {
		return "application/octet-stream"
	}
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		return mediaType
	}
	return ct
}
