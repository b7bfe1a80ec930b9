// Package classifier talks to the external image-classification service and
// turns its answers into form suggestions.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dmikhr/freshkeep/internal/model"
)

// Client calls the two classifier endpoints. Base URLs come from
// configuration; nothing is hard-coded.
type Client struct {
	predictURL string
	base64URL  string
	httpClient *http.Client
}

// NewClient builds a classifier client. predictURL serves multipart
// uploads, base64URL serves data-URI JSON bodies.
func NewClient(predictURL, base64URL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		predictURL: predictURL,
		base64URL:  base64URL,
		httpClient: httpClient,
	}
}

// Predict submits image bytes as a multipart upload and returns the
// predictions ordered by descending confidence, as the service sends them.
func (c *Client) Predict(ctx context.Context, filename string, image io.Reader) ([]model.Prediction, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(fw, image); err != nil {
		return nil, fmt.Errorf("copy image into request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.predictURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp, "detail")
	}
	var body struct {
		Predictions []model.Prediction `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	return body.Predictions, nil
}

// PredictBase64 submits a data-URI image to the alternate endpoint, which
// returns a single class/confidence pair.
func (c *Client) PredictBase64(ctx context.Context, dataURI string) (model.Prediction, error) {
	payload, err := json.Marshal(map[string]string{"image": dataURI})
	if err != nil {
		return model.Prediction{}, fmt.Errorf("marshal image payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base64URL, bytes.NewReader(payload))
	if err != nil {
		return model.Prediction{}, fmt.Errorf("build predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Prediction{}, decodeAPIError(resp, "error")
	}
	var body struct {
		Class      string  `json:"class"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Prediction{}, fmt.Errorf("decode prediction: %w", err)
	}
	return model.Prediction{Label: body.Class, Confidence: body.Confidence}, nil
}

// decodeAPIError pulls the error-detail field out of a non-200 response.
// The multipart endpoint reports under "detail", the base64 one under
// "error".
func decodeAPIError(resp *http.Response, field string) error {
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		if detail, ok := body[field].(string); ok && detail != "" {
			return fmt.Errorf("classifier returned %d: %s", resp.StatusCode, detail)
		}
	}
	return fmt.Errorf("classifier returned %d", resp.StatusCode)
}
