package geelark

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/sociomanager/sociomanager/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &config.GeelarkConfig{BaseURL: server.URL, Token: "test-token"}
	return NewClient(cfg, server.Client(), zap.NewNop()), server
}

func TestCreateTask(t *testing.T) {
	t.Run("Success Returns Task And Trace IDs", func(t *testing.T) {
		var gotAuth, gotTrace string
		var gotBody map[string]any

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/rpa/task/tiktokLogin" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			gotAuth = r.Header.Get("Authorization")
			gotTrace = r.Header.Get("traceId")
			json.NewDecoder(r.Body).Decode(&gotBody)

			w.Header().Set("traceId", gotTrace)
			json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"data": map[string]any{"taskId": "t1"},
			})
		}))

		req := &DispatchRequest{
			Path: "/v1/rpa/task/tiktokLogin",
			Body: map[string]any{"account": "alice", "scheduleAt": int64(1700000000)},
		}
		result, err := client.CreateTask(context.Background(), req)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if result.TaskID != "t1" {
			t.Errorf("expected task id 't1', got %s", result.TaskID)
		}
		if result.TraceID == "" || result.TraceID != gotTrace {
			t.Errorf("expected trace id %q to round-trip, got %q", gotTrace, result.TraceID)
		}
		if gotAuth != "Bearer test-token" {
			t.Errorf("expected bearer token header, got %q", gotAuth)
		}
		if gotBody["account"] != "alice" {
			t.Errorf("expected account 'alice' in body, got %v", gotBody["account"])
		}
	})

	t.Run("Each Call Gets A Fresh Trace ID", func(t *testing.T) {
		var traces []string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traces = append(traces, r.Header.Get("traceId"))
			json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": map[string]any{"taskId": "t"}})
		}))

		req := &DispatchRequest{Path: "/v1/rpa/task/add", Body: map[string]any{}}
		client.CreateTask(context.Background(), req)
		client.CreateTask(context.Background(), req)

		if len(traces) != 2 || traces[0] == "" || traces[0] == traces[1] {
			t.Errorf("expected two distinct trace ids, got %v", traces)
		}
	})

	t.Run("Non-Zero Code Is A RemoteError", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"code": 40001, "msg": "invalid env"})
		}))

		_, err := client.CreateTask(context.Background(), &DispatchRequest{Path: "/v1/rpa/task/add", Body: map[string]any{}})

		var remoteErr *RemoteError
		if !errors.As(err, &remoteErr) {
			t.Fatalf("expected RemoteError, got %v", err)
		}
		if remoteErr.Code != 40001 {
			t.Errorf("expected code 40001, got %d", remoteErr.Code)
		}
	})

	t.Run("Non-200 Status Is A RemoteError", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

		_, err := client.CreateTask(context.Background(), &DispatchRequest{Path: "/v1/rpa/task/add", Body: map[string]any{}})

		var remoteErr *RemoteError
		if !errors.As(err, &remoteErr) {
			t.Fatalf("expected RemoteError, got %v", err)
		}
	})
}

func TestQueryTasks(t *testing.T) {
	t.Run("Empty IDs Short-Circuit Without A Network Call", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("expected no network call for empty id list")
		}))

		statuses, err := client.QueryTasks(context.Background(), nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(statuses) != 0 {
			t.Errorf("expected no statuses, got %v", statuses)
		}
	})

	t.Run("Status And Type Codes Are Translated", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/task/query" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body struct {
				IDs []string `json:"ids"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if len(body.IDs) != 2 {
				t.Errorf("expected 2 ids in body, got %v", body.IDs)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"code": 0,
				"data": map[string]any{"items": []map[string]any{
					{"id": "t1", "status": 3, "taskType": 1},
					{"id": "t2", "status": 9, "taskType": 99},
				}},
			})
		}))

		statuses, err := client.QueryTasks(context.Background(), []string{"t1", "t2"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if statuses[0].Status != "Completed" {
			t.Errorf("expected 'Completed', got %s", statuses[0].Status)
		}
		if statuses[0].TaskType != "TikTok video posting" {
			t.Errorf("unexpected task type %s", statuses[0].TaskType)
		}
		// Unknown codes pass through rather than failing
		if statuses[1].Status != "9" || statuses[1].TaskType != "99" {
			t.Errorf("expected pass-through codes, got %+v", statuses[1])
		}
	})
}

func TestCancelAndRetry(t *testing.T) {
	t.Run("Cancel Posts The Task ID", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/task/cancel" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var body struct {
				IDs []string `json:"ids"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if len(body.IDs) != 1 || body.IDs[0] != "t1" {
				t.Errorf("expected ids [t1], got %v", body.IDs)
			}
			json.NewEncoder(w).Encode(map[string]any{"code": 0})
		}))

		if err := client.CancelTask(context.Background(), "t1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("Failed Cancel Surfaces The Error", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"code": 50000})
		}))

		if err := client.CancelTask(context.Background(), "t1"); err == nil {
			t.Error("expected error for non-zero code")
		}
	})

	t.Run("Retry Posts To The Retry Endpoint", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/task/retry" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{"code": 0})
		}))

		if err := client.RetryTask(context.Background(), "t1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}

func TestListPhones(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/phone/list" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"items": []map[string]any{
				{
					"id":         "m1",
					"serialName": "phone-01",
					"equipmentInfo": map[string]any{
						"deviceBrand": "Google",
						"deviceModel": "Pixel 6",
						"osVersion":   "13",
					},
				},
			}},
		})
	}))

	phones, err := client.ListPhones(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(phones) != 1 {
		t.Fatalf("expected 1 phone, got %d", len(phones))
	}
	if phones[0].MobileID != "m1" || phones[0].Brand != "Google" {
		t.Errorf("unexpected phone %+v", phones[0])
	}
}

func TestUploadMedia(t *testing.T) {
	var uploaded []byte

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/v1/upload/getUrl", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{
				"uploadUrl":   server.URL + "/put-here",
				"resourceUrl": "https://cdn.example.com/v.mp4",
			},
		})
	})
	mux.HandleFunc("/put-here", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		uploaded, _ = io.ReadAll(r.Body)
	})

	cfg := &config.GeelarkConfig{BaseURL: server.URL, Token: "test-token"}
	client := NewClient(cfg, server.Client(), zap.NewNop())

	resourceURL, err := client.UploadMedia(context.Background(), "mp4", []byte("movie"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resourceURL != "https://cdn.example.com/v.mp4" {
		t.Errorf("unexpected resource url %s", resourceURL)
	}
	if string(uploaded) != "movie" {
		t.Errorf("expected uploaded body 'movie', got %q", uploaded)
	}
}
