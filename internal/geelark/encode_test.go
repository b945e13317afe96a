package geelark

import (
	"errors"
	"testing"
	"time"

	"github.com/sociomanager/sociomanager/internal/models"
)

func testAccount(platform models.Platform) *models.Account {
	return &models.Account{
		MobileID: "d1",
		Platform: platform,
		Username: "alice",
		Password: "hunter2",
	}
}

func TestEncode(t *testing.T) {
	fixedRand := func() float64 { return 0.5 }

	t.Run("TikTok Login Selects tiktokLogin Endpoint", func(t *testing.T) {
		enc := NewEncoder(fixedRand)
		action := Action{Kind: ActionLogin, ScheduleAt: time.Unix(1700000000, 0)}

		req, err := enc.Encode(action, testAccount(models.PlatformTikTok))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.Path != "/v1/rpa/task/tiktokLogin" {
			t.Errorf("expected tiktokLogin path, got %s", req.Path)
		}
		if req.Body["account"] != "alice" {
			t.Errorf("expected account 'alice', got %v", req.Body["account"])
		}
		if req.Body["scheduleAt"] != int64(1700000000) {
			t.Errorf("expected scheduleAt 1700000000, got %v", req.Body["scheduleAt"])
		}
		if req.Body["password"] != "hunter2" {
			t.Errorf("expected password to be carried, got %v", req.Body["password"])
		}
	})

	t.Run("Login Field Varies By Platform", func(t *testing.T) {
		enc := NewEncoder(fixedRand)
		action := Action{Kind: ActionLogin, ScheduleAt: time.Unix(1700000000, 0)}

		cases := []struct {
			platform models.Platform
			path     string
			field    string
		}{
			{models.PlatformInstagram, "/v1/rpa/task/instagramLogin", "username"},
			{models.PlatformFacebook, "/v1/rpa/task/faceBookLogin", "email"},
			{models.PlatformYouTube, "/v1/rpa/task/googleLogin", "email"},
		}
		for _, tc := range cases {
			req, err := enc.Encode(action, testAccount(tc.platform))
			if err != nil {
				t.Fatalf("%s: expected no error, got %v", tc.platform, err)
			}
			if req.Path != tc.path {
				t.Errorf("%s: expected path %s, got %s", tc.platform, tc.path, req.Path)
			}
			if req.Body[tc.field] != "alice" {
				t.Errorf("%s: expected %s 'alice', got %v", tc.platform, tc.field, req.Body[tc.field])
			}
		}
	})

	t.Run("Schedule Timestamps Are Floored To Whole Seconds", func(t *testing.T) {
		enc := NewEncoder(fixedRand)
		// 999ms into the second must truncate down, never round up
		at := time.Unix(1700000000, int64(999*time.Millisecond))
		action := Action{Kind: ActionLogin, ScheduleAt: at}

		req, err := enc.Encode(action, testAccount(models.PlatformTikTok))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.Body["scheduleAt"] != int64(1700000000) {
			t.Errorf("expected truncated scheduleAt 1700000000, got %v", req.Body["scheduleAt"])
		}
	})

	t.Run("Login Name Truncates Long Usernames", func(t *testing.T) {
		enc := NewEncoder(fixedRand)
		acc := testAccount(models.PlatformInstagram)
		acc.Username = "alexandria"
		action := Action{Kind: ActionLogin, ScheduleAt: time.Unix(1700000000, 0)}

		req, err := enc.Encode(action, acc)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.Body["name"] != "Login alexan into instagram" {
			t.Errorf("unexpected task name %v", req.Body["name"])
		}
	})

	t.Run("Warmup Duration Comes From Injected Randomness", func(t *testing.T) {
		enc := NewEncoder(fixedRand)
		action := Action{Kind: ActionWarmup, ScheduleAt: time.Unix(1700000000, 0)}

		req, err := enc.Encode(action, testAccount(models.PlatformTikTok))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.Path != "/v1/rpa/task/add" {
			t.Errorf("expected /v1/rpa/task/add, got %s", req.Path)
		}
		if req.Body["duration"] != 5.0 {
			t.Errorf("expected duration 5.0, got %v", req.Body["duration"])
		}
		if req.Body["envId"] != "d1" {
			t.Errorf("expected envId 'd1', got %v", req.Body["envId"])
		}
	})

	t.Run("Warmup Carries Keywords Where The Platform Wants Them", func(t *testing.T) {
		enc := NewEncoder(fixedRand)
		action := Action{
			Kind:       ActionWarmup,
			ScheduleAt: time.Unix(1700000000, 0),
			Keywords:   []string{"food", "cakes"},
		}

		for _, platform := range []models.Platform{models.PlatformFacebook, models.PlatformYouTube} {
			req, err := enc.Encode(action, testAccount(platform))
			if err != nil {
				t.Fatalf("%s: expected no error, got %v", platform, err)
			}
			keywords, ok := req.Body["keyword"].([]string)
			if !ok || len(keywords) != 2 {
				t.Errorf("%s: expected 2 keywords, got %v", platform, req.Body["keyword"])
			}
		}
	})

	t.Run("TikTok Publish Uses Batched Endpoint", func(t *testing.T) {
		enc := NewEncoder(fixedRand)
		action := Action{
			Kind:       ActionPublish,
			ScheduleAt: time.Unix(1700000000, 0),
			MediaURL:   "https://cdn.example.com/v.mp4",
			Caption:    "hello",
			MediaKind:  models.MediaVideo,
		}

		req, err := enc.Encode(action, testAccount(models.PlatformTikTok))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.Path != "/v1/rpa/task/add" {
			t.Errorf("expected /v1/rpa/task/add, got %s", req.Path)
		}
		if req.Body["taskType"] != 1 {
			t.Errorf("expected taskType 1, got %v", req.Body["taskType"])
		}
		list, ok := req.Body["list"].([]map[string]any)
		if !ok || len(list) != 1 {
			t.Fatalf("expected one list entry, got %v", req.Body["list"])
		}
		if list[0]["video"] != "https://cdn.example.com/v.mp4" {
			t.Errorf("unexpected video url %v", list[0]["video"])
		}
	})

	t.Run("Instagram Image Publish", func(t *testing.T) {
		enc := NewEncoder(fixedRand)
		action := Action{
			Kind:       ActionPublish,
			ScheduleAt: time.Unix(1700000000, 0),
			MediaURL:   "https://cdn.example.com/p.jpg",
			Caption:    "hello",
			MediaKind:  models.MediaImage,
		}

		req, err := enc.Encode(action, testAccount(models.PlatformInstagram))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.Path != "/v1/rpa/task/instagramPubReelsImages" {
			t.Errorf("unexpected path %s", req.Path)
		}
		images, ok := req.Body["image"].([]string)
		if !ok || len(images) != 1 || images[0] != "https://cdn.example.com/p.jpg" {
			t.Errorf("unexpected image field %v", req.Body["image"])
		}
		if req.Body["description"] != "hello" {
			t.Errorf("unexpected description %v", req.Body["description"])
		}
	})

	t.Run("Unsupported Combinations Are Refused", func(t *testing.T) {
		enc := NewEncoder(fixedRand)

		cases := []struct {
			action   Action
			platform models.Platform
		}{
			{Action{Kind: ActionPublish, MediaKind: models.MediaImage}, models.PlatformFacebook},
			{Action{Kind: ActionPublish, MediaKind: models.MediaImage}, models.PlatformYouTube},
			{Action{Kind: ActionLogin}, models.Platform("snapchat")},
			{Action{Kind: ActionWarmup}, models.Platform("snapchat")},
			{Action{Kind: ActionKind("unknown")}, models.PlatformTikTok},
		}
		for _, tc := range cases {
			tc.action.ScheduleAt = time.Unix(1700000000, 0)
			_, err := enc.Encode(tc.action, testAccount(tc.platform))

			var unsupported *UnsupportedPlatformError
			if !errors.As(err, &unsupported) {
				t.Errorf("%s/%s: expected UnsupportedPlatformError, got %v", tc.action.Kind, tc.platform, err)
				continue
			}
			if unsupported.Platform != tc.platform {
				t.Errorf("expected platform %s in error, got %s", tc.platform, unsupported.Platform)
			}
		}
	})
}

func TestStatusLabel(t *testing.T) {
	cases := map[int]string{
		1: "Waiting",
		2: "In progress",
		3: "Completed",
		4: "Failed",
		7: "Cancelled",
		9: "9", // unknown codes pass through
	}
	for code, want := range cases {
		if got := StatusLabel(code); got != want {
			t.Errorf("StatusLabel(%d) = %s, want %s", code, got, want)
		}
	}
}
