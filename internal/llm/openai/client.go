package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tsaito/scannote/internal/llm"
)

// Classify implements llm.Classifier against an OpenAI-compatible
// /chat/completions endpoint. Page images are attached inline as base64
// data URLs in a single user message, the way vision endpoints expect.
func (c *Client) Classify(ctx context.Context, req llm.ClassifyRequest) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.classify.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", req.Temperature,
		"prompt_len", len(req.Prompt),
		"images", len(req.ImagePaths),
	)

	content := []map[string]any{
		{"type": "text", "text": req.Prompt},
	}
	for _, imgPath := range req.ImagePaths {
		dataURL, err := readAsDataURL(imgPath)
		if err != nil {
			c.log.Error("llm.classify.encode_image_failed",
				"req_id", rid, "image", imgPath, "error", err)
			return "", fmt.Errorf("encode image %s: %w", imgPath, err)
		}
		content = append(content, map[string]any{
			"type":      "image_url",
			"image_url": map[string]any{"url": dataURL},
		})
	}

	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": req.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := c.post(ctx, endpoint, body)
	if err != nil {
		c.log.Error("llm.classify.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.classify.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.classify.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", fmt.Errorf("no choices in chat response")
	}

	reply := cc.Choices[0].Message.Content
	c.log.Info("llm.classify.ok",
		"req_id", rid,
		"reply_len", len(reply),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return reply, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.log.Warn("chat response body close error", "error", err)
		}
	}(resp.Body)

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chat status %d: %s", resp.StatusCode, buf.String())
	}
	return buf.Bytes(), nil
}

// readAsDataURL reads an image file and wraps it as a base64 data URL. All
// rendered pages are PNG; JPEG sources keep their own type.
func readAsDataURL(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mt := "image/png"
	low := strings.ToLower(path)
	if strings.HasSuffix(low, ".jpg") || strings.HasSuffix(low, ".jpeg") {
		mt = "image/jpeg"
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}
