package kobo

import (
	"errors"
	"fmt"
)

// ErrNoExportSettings means the asset has no saved export settings at all;
// the operator has to create one in the Kobo UI before the sync can work.
var ErrNoExportSettings = errors.New("asset has no export settings")

// MalformedSettingError means the chosen export setting carries neither a
// url nor a uid, so no data endpoint can be derived from it. The fix lives
// in the Kobo UI, not here.
type MalformedSettingError struct {
	Name string
}

func (e *MalformedSettingError) Error() string {
	name := e.Name
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("export setting %s carries neither url nor uid", name)
}

// StatusError is a non-2xx response. Transient codes are retried by the
// client; everything else surfaces this error unchanged.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("kobo API error: status %d: %s", e.Code, e.URL)
}

// DownloadError reports exhausted retries against one URL, carrying the last
// underlying failure.
type DownloadError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download failed after %d attempts: %s: %v", e.Attempts, e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ExportNotFoundError reports a name lookup miss along with what the asset
// actually offers, so a typo is diagnosable from the error alone.
type ExportNotFoundError struct {
	Name      string
	Available []string
}

func (e *ExportNotFoundError) Error() string {
	avail := e.Available
	suffix := ""
	if len(avail) > 20 {
		avail = avail[:20]
		suffix = ", ..."
	}
	return fmt.Sprintf("no export setting named %q; available: %v%s", e.Name, avail, suffix)
}
