package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewCommandID generates a unique command ID.
// Format: cmd_<unix-millis>_<random suffix>. The random suffix keeps ids
// unique under rapid sequential enqueues within the same millisecond.
func NewCommandID() string {
	return fmt.Sprintf("cmd_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}
