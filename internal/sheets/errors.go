package sheets

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

var (
	ErrNotConfigured = errors.New("google sheets not configured")
	ErrSheetNotFound = errors.New("sheet not found")
	ErrSheetExists   = errors.New("sheet title already exists")
)

// RemoteError is an opaque failure reported by the Sheets API. The message
// is passed through unchanged.
type RemoteError struct {
	Op      string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("sheets %s: %d %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("sheets %s: %s", e.Op, e.Message)
}

// Unwrap lets errors.Is(err, ErrSheetNotFound) match remote "not found"
// responses, including ranges naming a tab that no longer exists, and
// errors.Is(err, ErrSheetExists) match a rejected duplicate tab title.
func (e *RemoteError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrSheetNotFound
	}
	if e.Code != http.StatusBadRequest {
		return nil
	}
	msg := strings.ToLower(e.Message)
	switch {
	case strings.Contains(msg, "unable to parse range"):
		return ErrSheetNotFound
	case strings.Contains(msg, "already exists"):
		return ErrSheetExists
	}
	return nil
}

func wrapRemote(op string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &RemoteError{Op: op, Code: gerr.Code, Message: gerr.Message}
	}
	return &RemoteError{Op: op, Message: err.Error()}
}
