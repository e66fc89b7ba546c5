package pinning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dmitrijs2005/chainvault/internal/common"
	"github.com/dmitrijs2005/chainvault/internal/server/models"
)

// PinataPinner pins payloads through the Pinata pinFileToIPFS endpoint.
type PinataPinner struct {
	baseURL   string
	apiKey    string
	apiSecret string
	client    *http.Client
}

// NewPinataPinner constructs a pinner for the given Pinata credentials.
// A nil client falls back to a default with a 60 second timeout.
func NewPinataPinner(baseURL, apiKey, apiSecret string, client *http.Client) *PinataPinner {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &PinataPinner{baseURL: baseURL, apiKey: apiKey, apiSecret: apiSecret, client: client}
}

type pinataMetadata struct {
	Name      string            `json:"name"`
	Keyvalues map[string]string `json:"keyvalues"`
}

type pinataOptions struct {
	CidVersion int `json:"cidVersion"`
}

type pinataResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	Timestamp string `json:"Timestamp"`
}

func (p *PinataPinner) buildRequest(ctx context.Context, payload []byte, meta models.PinMetadata) (*http.Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", meta.OriginalName)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(payload); err != nil {
		return nil, err
	}

	md, err := json.Marshal(pinataMetadata{
		Name: meta.OriginalName,
		Keyvalues: map[string]string{
			"userId":     meta.OwnerID,
			"uploadedAt": meta.UploadedAt.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, err
	}
	if err := w.WriteField("pinataMetadata", string(md)); err != nil {
		return nil, err
	}

	opts, err := json.Marshal(pinataOptions{CidVersion: 1})
	if err != nil {
		return nil, err
	}
	if err := w.WriteField("pinataOptions", string(opts)); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("pinata_api_key", p.apiKey)
	req.Header.Set("pinata_secret_api_key", p.apiSecret)
	return req, nil
}

// mapStatus translates a non-2xx Pinata status into the shared taxonomy.
func mapStatus(status int) error {
	switch {
	case status == http.StatusPaymentRequired || status == http.StatusTooManyRequests:
		return common.ErrQuotaExceeded
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return common.ErrUnauthorized
	case status >= 400 && status < 500:
		return common.ErrInvalidInput
	default:
		return common.ErrUnavailable
	}
}

func (p *PinataPinner) Pin(ctx context.Context, payload []byte, meta models.PinMetadata) (*models.PinResult, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", common.ErrInvalidInput)
	}

	req, err := p.buildRequest(ctx, payload, meta)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: pinata status %d: %s", mapStatus(resp.StatusCode), resp.StatusCode, body)
	}

	var pr pinataResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("%w: decoding pinata response: %v", common.ErrUnavailable, err)
	}
	if pr.IpfsHash == "" {
		return nil, fmt.Errorf("%w: pinata response missing IpfsHash", common.ErrUnavailable)
	}

	pinnedAt, err := time.Parse(time.RFC3339, pr.Timestamp)
	if err != nil {
		pinnedAt = time.Now().UTC()
	}
	return &models.PinResult{CID: pr.IpfsHash, PinnedAt: pinnedAt}, nil
}
