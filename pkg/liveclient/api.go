package liveclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"talentvault_backend/internal/services/dto"
)

// API is the slice of the REST surface the live client and the broadcast
// composer consume. The persisted store behind it is the durable source of
// truth for read state.
type API interface {
	ListNotifications(ctx context.Context, limit int) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, notificationID string) error

	BroadcastStats(ctx context.Context) (*dto.BroadcastStatsResponse, error)
	SearchUsers(ctx context.Context, query string, limit int, excludeIDs []string) ([]dto.UserResponse, error)
	SendBroadcast(ctx context.Context, req *dto.SendBroadcastRequest) (*dto.SendBroadcastResult, error)
}

// HTTPAPI implements API against the backend's /api/v1 routes.
type HTTPAPI struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPAPI(baseURL, token string) *HTTPAPI {
	return &HTTPAPI{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *HTTPAPI) ListNotifications(ctx context.Context, limit int) (*dto.NotificationListResponse, error) {
	var out dto.NotificationListResponse
	path := "/api/v1/notifications"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := a.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAPI) MarkRead(ctx context.Context, notificationID string) error {
	return a.do(ctx, http.MethodPost, "/api/v1/notifications/"+notificationID+"/read", nil, nil)
}

func (a *HTTPAPI) MarkAllRead(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/api/v1/notifications/read-all", nil, nil)
}

func (a *HTTPAPI) DeleteNotification(ctx context.Context, notificationID string) error {
	return a.do(ctx, http.MethodDelete, "/api/v1/notifications/"+notificationID, nil, nil)
}

func (a *HTTPAPI) BroadcastStats(ctx context.Context) (*dto.BroadcastStatsResponse, error) {
	var out dto.BroadcastStatsResponse
	if err := a.do(ctx, http.MethodGet, "/api/v1/broadcast/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *HTTPAPI) SearchUsers(ctx context.Context, query string, limit int, excludeIDs []string) ([]dto.UserResponse, error) {
	params := url.Values{}
	params.Set("search", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if len(excludeIDs) > 0 {
		params.Set("exclude", strings.Join(excludeIDs, ","))
	}

	var out dto.UserSearchResponse
	if err := a.do(ctx, http.MethodGet, "/api/v1/broadcast/users?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (a *HTTPAPI) SendBroadcast(ctx context.Context, req *dto.SendBroadcastRequest) (*dto.SendBroadcastResult, error) {
	var out dto.SendBroadcastResponse
	if err := a.do(ctx, http.MethodPost, "/api/v1/broadcast/send", req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (a *HTTPAPI) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("api: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
