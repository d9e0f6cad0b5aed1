package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// SupabaseBucket talks to the Supabase Storage REST API with a service key.
type SupabaseBucket struct {
	baseURL    string
	serviceKey string
	bucket     string
	client     *http.Client
}

func NewSupabaseBucket(baseURL, serviceKey, bucket string, client *http.Client) *SupabaseBucket {
	if client == nil {
		client = http.DefaultClient
	}
	return &SupabaseBucket{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		client:     client,
	}
}

type supabaseError struct {
	StatusCode string `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func (b *SupabaseBucket) Upload(ctx context.Context, name string, body io.Reader, contentType string) error {
	if err := validName(name); err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", b.baseURL, b.bucket, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	b.authorize(req)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "false")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return b.readError(resp)
}

func (b *SupabaseBucket) Remove(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string][]string{"prefixes": names})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s", b.baseURL, b.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	b.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("remove request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	return b.readError(resp)
}

func (b *SupabaseBucket) PublicURL(name string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", b.baseURL, b.bucket, name)
}

func (b *SupabaseBucket) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+b.serviceKey)
	req.Header.Set("apikey", b.serviceKey)
}

func (b *SupabaseBucket) readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr supabaseError
	_ = json.Unmarshal(body, &apiErr)

	// Storage reports an existing object as 409, or as 400 with statusCode "409".
	if resp.StatusCode == http.StatusConflict || apiErr.StatusCode == "409" || apiErr.Error == "Duplicate" {
		return ErrObjectExists
	}

	message := apiErr.Message
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	return fmt.Errorf("storage API error (status %d): %s", resp.StatusCode, message)
}
