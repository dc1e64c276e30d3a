package handler

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matjmiles/healthcare-job-organizer/internal/api/storage"
)

// DecodeCursor parses an opaque "unixnano|id" page token. An empty token
// means the first page.
func DecodeCursor(token string) (*storage.Cursor, error) {
	if token == "" {
		return nil, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor encoding: %w", err)
	}

	at, id, ok := strings.Cut(string(decoded), "|")
	if !ok || id == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	nanos, err := strconv.ParseInt(at, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}

	return &storage.Cursor{At: time.Unix(0, nanos).UTC(), ID: id}, nil
}

// EncodeCursor renders a page token for the last row of a page
func EncodeCursor(at time.Time, id string) string {
	return base64.URLEncoding.EncodeToString([]byte(fmt.Sprintf("%d|%s", at.UnixNano(), id)))
}
