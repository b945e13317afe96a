package geelark

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sociomanager/sociomanager/internal/models"
)

// ActionKind names one of the automation actions the dispatcher knows how
// to turn into a remote job.
type ActionKind string

const (
	ActionLogin   ActionKind = "login"
	ActionWarmup  ActionKind = "warmup"
	ActionPublish ActionKind = "publish"
)

// Action is one automation request before encoding. ScheduleAt must be set
// by the caller; the dispatcher fills in the current wall clock when the
// API request left it empty.
type Action struct {
	Kind       ActionKind
	ScheduleAt time.Time

	// Publish fields
	MediaURL  string
	Caption   string
	MediaKind models.MediaKind

	// Warmup fields
	Keywords []string
}

// DispatchRequest is the platform-specific payload for one remote job
// creation call. Opaque past the encoder boundary.
type DispatchRequest struct {
	Path string
	Body map[string]any
}

// Encoder maps (action, account) pairs onto GeeLark request shapes. The
// randomness source feeds browse-duration style fields so tests can pin
// them down.
type Encoder struct {
	rand func() float64
}

// NewEncoder returns an encoder backed by the given randomness source, or
// math/rand when nil.
func NewEncoder(random func() float64) *Encoder {
	if random == nil {
		random = rand.Float64
	}
	return &Encoder{rand: random}
}

const rpaTaskPath = "/v1/rpa/task"

type builder func(e *Encoder, a Action, acc *models.Account, scheduleAt int64) DispatchRequest

// The action/platform matrix. A missing cell means the remote API has no
// endpoint for that combination and the encoder refuses it.
var (
	loginBuilders = map[models.Platform]builder{
		models.PlatformInstagram: func(_ *Encoder, _ Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			body := loginBody(acc, scheduleAt)
			body["username"] = acc.Username
			return DispatchRequest{Path: rpaTaskPath + "/instagramLogin", Body: body}
		},
		models.PlatformFacebook: func(_ *Encoder, _ Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			body := loginBody(acc, scheduleAt)
			body["email"] = acc.Username
			return DispatchRequest{Path: rpaTaskPath + "/faceBookLogin", Body: body}
		},
		models.PlatformTikTok: func(_ *Encoder, _ Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			body := loginBody(acc, scheduleAt)
			body["account"] = acc.Username
			return DispatchRequest{Path: rpaTaskPath + "/tiktokLogin", Body: body}
		},
		models.PlatformYouTube: func(_ *Encoder, _ Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			body := loginBody(acc, scheduleAt)
			body["email"] = acc.Username
			return DispatchRequest{Path: rpaTaskPath + "/googleLogin", Body: body}
		},
	}

	warmupBuilders = map[models.Platform]builder{
		models.PlatformTikTok: func(e *Encoder, _ Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			return DispatchRequest{Path: rpaTaskPath + "/add", Body: map[string]any{
				"scheduleAt": scheduleAt,
				"envId":      acc.MobileID,
				"action":     "browse video",
				"duration":   e.rand() * 10,
			}}
		},
		models.PlatformFacebook: func(e *Encoder, a Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			return DispatchRequest{Path: rpaTaskPath + "/faceBookActiveAccount", Body: map[string]any{
				"scheduleAt":     scheduleAt,
				"id":             acc.MobileID,
				"browsePostsNum": e.rand() * 10,
				"keyword":        a.Keywords,
				"name":           fmt.Sprintf("%s warmup", acc.Platform),
			}}
		},
		models.PlatformInstagram: func(e *Encoder, _ Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			return DispatchRequest{Path: rpaTaskPath + "/instagramWarmup", Body: map[string]any{
				"scheduleAt":  scheduleAt,
				"id":          acc.MobileID,
				"browseVideo": e.rand() * 10,
				"name":        fmt.Sprintf("%s warmup", acc.Platform),
			}}
		},
		models.PlatformYouTube: func(e *Encoder, a Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			return DispatchRequest{Path: rpaTaskPath + "/youTubeActiveAccount", Body: map[string]any{
				"scheduleAt":     scheduleAt,
				"id":             acc.MobileID,
				"browseVideoNum": e.rand() * 10,
				"keyword":        a.Keywords,
				"name":           fmt.Sprintf("%s warmup", acc.Platform),
			}}
		},
	}

	publishVideoBuilders = map[models.Platform]builder{
		models.PlatformInstagram: func(_ *Encoder, a Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			body := publishBody(a, acc, scheduleAt, "video")
			body["video"] = []string{a.MediaURL}
			return DispatchRequest{Path: rpaTaskPath + "/instagramPubReels", Body: body}
		},
		models.PlatformFacebook: func(_ *Encoder, a Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			body := publishBody(a, acc, scheduleAt, "video")
			body["video"] = a.MediaURL
			return DispatchRequest{Path: rpaTaskPath + "/faceBookPubReels", Body: body}
		},
		models.PlatformYouTube: func(_ *Encoder, a Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			body := publishBody(a, acc, scheduleAt, "video")
			body["video"] = a.MediaURL
			return DispatchRequest{Path: rpaTaskPath + "/youtubePubShort", Body: body}
		},
		models.PlatformTikTok: func(_ *Encoder, a Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			// TikTok uses a batched endpoint; taskType 1 is video posting.
			return DispatchRequest{Path: rpaTaskPath + "/add", Body: map[string]any{
				"taskType": 1,
				"list": []map[string]any{{
					"envId":      acc.MobileID,
					"video":      a.MediaURL,
					"scheduleAt": scheduleAt,
				}},
			}}
		},
	}

	publishImageBuilders = map[models.Platform]builder{
		models.PlatformInstagram: func(_ *Encoder, a Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			body := publishBody(a, acc, scheduleAt, "photo")
			body["image"] = []string{a.MediaURL}
			return DispatchRequest{Path: rpaTaskPath + "/instagramPubReelsImages", Body: body}
		},
		models.PlatformTikTok: func(_ *Encoder, a Action, acc *models.Account, scheduleAt int64) DispatchRequest {
			// taskType 3 is carousel (image set) posting.
			return DispatchRequest{Path: rpaTaskPath + "/add", Body: map[string]any{
				"taskType": 3,
				"list": []map[string]any{{
					"envId":      acc.MobileID,
					"images":     []string{a.MediaURL},
					"scheduleAt": scheduleAt,
				}},
			}}
		},
	}
)

func loginBody(acc *models.Account, scheduleAt int64) map[string]any {
	name := acc.Username
	if len(name) > 6 {
		name = name[:6]
	}
	return map[string]any{
		"name":       fmt.Sprintf("Login %s into %s", name, acc.Platform),
		"scheduleAt": scheduleAt,
		"password":   acc.Password,
		"id":         acc.MobileID,
	}
}

func publishBody(a Action, acc *models.Account, scheduleAt int64, noun string) map[string]any {
	return map[string]any{
		"name":        fmt.Sprintf("publishing %s to %s", noun, acc.Platform),
		"id":          acc.MobileID,
		"description": a.Caption,
		"scheduleAt":  scheduleAt,
	}
}

func (e *Encoder) builderFor(a Action, platform models.Platform) (builder, bool) {
	switch a.Kind {
	case ActionLogin:
		b, ok := loginBuilders[platform]
		return b, ok
	case ActionWarmup:
		b, ok := warmupBuilders[platform]
		return b, ok
	case ActionPublish:
		if a.MediaKind == models.MediaImage {
			b, ok := publishImageBuilders[platform]
			return b, ok
		}
		b, ok := publishVideoBuilders[platform]
		return b, ok
	default:
		return nil, false
	}
}

// Encode produces the GeeLark request for one action against one account.
// Schedule timestamps are truncated to whole seconds, never rounded up.
func (e *Encoder) Encode(a Action, acc *models.Account) (*DispatchRequest, error) {
	b, ok := e.builderFor(a, acc.Platform)
	if !ok {
		return nil, &UnsupportedPlatformError{Platform: acc.Platform, Action: a.Kind}
	}

	req := b(e, a, acc, a.ScheduleAt.Unix())
	return &req, nil
}
