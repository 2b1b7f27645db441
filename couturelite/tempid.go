// Copyright 2025 KisCouture
// SPDX-License-Identifier: Apache-2.0

package couturelite

import (
	"fmt"
	"sync"
	"time"

	"github.com/alanz0209/KisCoutureApp/couturesync"
)

var tempIDMu sync.Mutex
var lastTempStamp int64

// NewTempID returns a fresh temporary identifier of the form
// temp_<unix-millis>. The timestamp is forced strictly monotonic within the
// process so ids generated in the same millisecond stay unique and preserve
// creation order.
func NewTempID() string {
	tempIDMu.Lock()
	defer tempIDMu.Unlock()
	stamp := time.Now().UnixMilli()
	if stamp <= lastTempStamp {
		stamp = lastTempStamp + 1
	}
	lastTempStamp = stamp
	return fmt.Sprintf("%s%d", couturesync.TempIDPrefix, stamp)
}
