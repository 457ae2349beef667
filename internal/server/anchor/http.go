package anchor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPAnchorer submits digests to an external anchoring service over a
// small JSON API: POST {"digest": "..."} to the endpoint, expecting
// {"ref": "..."} back.
type HTTPAnchorer struct {
	endpoint string
	client   *http.Client
}

func NewHTTPAnchorer(endpoint string) *HTTPAnchorer {
	return &HTTPAnchorer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type anchorRequest struct {
	Digest string `json:"digest"`
}

type anchorResponse struct {
	Ref string `json:"ref"`
}

func (a *HTTPAnchorer) Anchor(ctx context.Context, digest string) (string, error) {
	body, err := json.Marshal(anchorRequest{Digest: digest})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("anchoring failed: %s; body: %s", resp.Status, string(b))
	}

	var out anchorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Ref, nil
}
