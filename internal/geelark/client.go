package geelark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sociomanager/sociomanager/internal/config"
)

// Client talks to the GeeLark cloud-phone API. Every outbound call carries
// the bearer token and a freshly generated traceId header so retries can be
// told apart on the remote side. The client never retries on its own;
// transient-failure policy belongs to the dispatcher and reconciler.
type Client struct {
	config     *config.GeelarkConfig
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *config.GeelarkConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
	}
}

type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// CreateResult is the normalized outcome of an accepted job creation.
type CreateResult struct {
	TaskID  string
	TraceID string
}

// TaskStatus is one entry of a bulk status query, with the integer codes
// already translated to labels.
type TaskStatus struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	TaskType string `json:"taskType"`
}

// PhoneInfo describes one cloud phone from the remote inventory.
type PhoneInfo struct {
	MobileID   string
	SerialName string
	Brand      string
	Model      string
	OSVersion  string
}

func (c *Client) post(ctx context.Context, path string, body any) (*apiResponse, string, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	traceID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("traceId", traceID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, traceID, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, traceID, fmt.Errorf("failed to read response: %w", err)
	}

	if echoed := resp.Header.Get("traceId"); echoed != "" {
		traceID = echoed
	}

	if resp.StatusCode != http.StatusOK {
		return nil, traceID, &RemoteError{Code: resp.StatusCode, Body: string(raw)}
	}

	var response apiResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, traceID, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Code != 0 {
		return &response, traceID, &RemoteError{Code: response.Code, Body: string(raw)}
	}

	return &response, traceID, nil
}

// CreateTask submits one encoded dispatch request. Only code 0 means the
// job was accepted; any other response surfaces as a RemoteError and no
// local record should be written.
func (c *Client) CreateTask(ctx context.Context, req *DispatchRequest) (*CreateResult, error) {
	c.logger.Debug("Creating geelark task", zap.String("path", req.Path))

	resp, traceID, err := c.post(ctx, req.Path, req.Body)
	if err != nil {
		return nil, err
	}

	var data struct {
		TaskID string `json:"taskId"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode task creation data: %w", err)
	}

	return &CreateResult{TaskID: data.TaskID, TraceID: traceID}, nil
}

// QueryTasks pulls authoritative status for the given task ids. An empty
// id list short-circuits without a network call.
func (c *Client) QueryTasks(ctx context.Context, ids []string) ([]TaskStatus, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	resp, _, err := c.post(ctx, "/v1/task/query", map[string]any{"ids": ids})
	if err != nil {
		return nil, err
	}

	var data struct {
		Items []struct {
			ID       string `json:"id"`
			Status   int    `json:"status"`
			TaskType int    `json:"taskType"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode task query data: %w", err)
	}

	statuses := make([]TaskStatus, 0, len(data.Items))
	for _, item := range data.Items {
		statuses = append(statuses, TaskStatus{
			ID:       item.ID,
			Status:   StatusLabel(item.Status),
			TaskType: TaskTypeLabel(item.TaskType),
		})
	}

	return statuses, nil
}

// CancelTask asks the remote side to cancel one task.
func (c *Client) CancelTask(ctx context.Context, taskID string) error {
	c.logger.Info("Cancelling geelark task", zap.String("task_id", taskID))

	_, _, err := c.post(ctx, "/v1/task/cancel", map[string]any{"ids": []string{taskID}})
	return err
}

// RetryTask asks the remote side to re-run one failed task.
func (c *Client) RetryTask(ctx context.Context, taskID string) error {
	c.logger.Info("Retrying geelark task", zap.String("task_id", taskID))

	_, _, err := c.post(ctx, "/v1/task/retry", map[string]any{"ids": []string{taskID}})
	return err
}

// ListPhones fetches one page of the cloud phone inventory.
func (c *Client) ListPhones(ctx context.Context, page, pageSize int) ([]PhoneInfo, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	resp, _, err := c.post(ctx, "/v1/phone/list", map[string]any{"page": page, "pageSize": pageSize})
	if err != nil {
		return nil, err
	}

	var data struct {
		Items []struct {
			ID            string `json:"id"`
			SerialName    string `json:"serialName"`
			EquipmentInfo struct {
				DeviceBrand string `json:"deviceBrand"`
				DeviceModel string `json:"deviceModel"`
				OSVersion   string `json:"osVersion"`
			} `json:"equipmentInfo"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to decode phone list data: %w", err)
	}

	phones := make([]PhoneInfo, 0, len(data.Items))
	for _, item := range data.Items {
		phones = append(phones, PhoneInfo{
			MobileID:   item.ID,
			SerialName: item.SerialName,
			Brand:      item.EquipmentInfo.DeviceBrand,
			Model:      item.EquipmentInfo.DeviceModel,
			OSVersion:  item.EquipmentInfo.OSVersion,
		})
	}

	return phones, nil
}

// UploadMedia pushes raw media bytes through the remote upload flow: ask
// for a one-shot upload URL, PUT the content there, return the resource
// URL the publish endpoints accept.
func (c *Client) UploadMedia(ctx context.Context, fileType string, content []byte) (string, error) {
	resp, _, err := c.post(ctx, "/v1/upload/getUrl", map[string]any{"fileType": fileType})
	if err != nil {
		return "", fmt.Errorf("failed to get upload URL: %w", err)
	}

	var data struct {
		UploadURL   string `json:"uploadUrl"`
		ResourceURL string `json:"resourceUrl"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return "", fmt.Errorf("failed to decode upload URL data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, data.UploadURL, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}

	uploadResp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload media: %w", err)
	}
	defer uploadResp.Body.Close()

	if uploadResp.StatusCode < 200 || uploadResp.StatusCode >= 300 {
		body, _ := io.ReadAll(uploadResp.Body)
		return "", &RemoteError{Code: uploadResp.StatusCode, Body: string(body)}
	}

	c.logger.Info("Media uploaded", zap.String("resource_url", data.ResourceURL))

	return data.ResourceURL, nil
}
