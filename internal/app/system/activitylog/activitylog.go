// Package activitylog records audit entries without ever affecting the
// request that caused them. Writes go through the outbox; a failed write is a
// log line, not an error.
package activitylog

import (
	"context"
	"net/http"
	"strings"

	activitystore "github.com/crewdesk/crewdesk/internal/app/store/activity"
	"github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/outbox"
	"github.com/crewdesk/crewdesk/internal/domain/models"
)

// Recorder appends audit entries asynchronously. A nil Recorder is safe and
// records nothing, so call sites never branch.
type Recorder struct {
	store *activitystore.Store
	out   *outbox.Dispatcher
}

func New(store *activitystore.Store, out *outbox.Dispatcher) *Recorder {
	return &Recorder{store: store, out: out}
}

// Record queues an audit entry for the acting principal.
func (rec *Recorder) Record(p auth.Principal, action, details string, r *http.Request) {
	if rec == nil {
		return
	}
	entry := models.ActivityLog{
		UserID:    p.UserID,
		Action:    action,
		Details:   details,
		CompanyID: p.CompanyID,
	}
	if r != nil {
		entry.IPAddress = clientIP(r)
		entry.UserAgent = r.UserAgent()
	}
	rec.out.Submit("activity:"+action, func(ctx context.Context) error {
		return rec.store.Append(ctx, entry)
	})
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the socket
// address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}
