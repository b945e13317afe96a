package geelark

import (
	"strconv"

	"github.com/sociomanager/sociomanager/internal/models"
)

// Integer status and task-type codes used by the GeeLark task query API.
// Codes missing from these tables pass through as their decimal form
// rather than failing the whole query.
var statusLabels = map[int]string{
	1: models.StatusWaiting,
	2: models.StatusInProgress,
	3: models.StatusCompleted,
	4: models.StatusFailed,
	7: models.StatusCancelled,
}

var taskTypeLabels = map[int]string{
	1:  "TikTok video posting",
	2:  "TikTok AI account warmup",
	3:  "TikTok carousel posting",
	4:  "TikTok account login",
	6:  "TikTok profile editing",
	42: "Custom(Including Facebook, YouTube and other platforms)",
}

// StatusLabel translates a remote status code to its human label.
func StatusLabel(code int) string {
	if label, ok := statusLabels[code]; ok {
		return label
	}
	return strconv.Itoa(code)
}

// TaskTypeLabel translates a remote task-type code to its human label.
func TaskTypeLabel(code int) string {
	if label, ok := taskTypeLabels[code]; ok {
		return label
	}
	return strconv.Itoa(code)
}
