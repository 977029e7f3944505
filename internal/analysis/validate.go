package analysis

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/oeonyangoemma-bot/agrivision/internal/domain"
)

// ValidateSubmission gates an analysis submission before any network call.
// Media type is checked by declared prefix only, never by decoding pixels.
// Returns a per-field error map; an empty map means the input is valid.
func ValidateSubmission(mediaDataURI string, maxBytes int64) domain.FieldErrors {
	errs := make(domain.FieldErrors)

	if strings.TrimSpace(mediaDataURI) == "" {
		errs["mediaDataUri"] = "an image is required"
		return errs
	}
	if !strings.HasPrefix(mediaDataURI, "data:image/") {
		errs["mediaDataUri"] = "must be a data URI for an image"
		return errs
	}

	_, payload, err := splitDataURI(mediaDataURI)
	if err != nil {
		errs["mediaDataUri"] = "malformed image data URI"
		return errs
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes {
		errs["mediaDataUri"] = fmt.Sprintf("image exceeds the %d MiB limit", maxBytes>>20)
		return errs
	}

	return errs
}

// splitDataURI splits "data:<mediatype>;base64,<payload>" into its media
// type and raw base64 payload.
func splitDataURI(uri string) (mediaType, payload string, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", "", fmt.Errorf("missing data scheme")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", "", fmt.Errorf("missing payload separator")
	}
	mediaType, ok = strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", "", fmt.Errorf("payload must be base64 encoded")
	}
	if mediaType == "" || payload == "" {
		return "", "", fmt.Errorf("empty media type or payload")
	}
	return mediaType, payload, nil
}

// DecodeDataURI returns the media type and decoded bytes of an image data URI.
func DecodeDataURI(uri string) (mediaType string, data []byte, err error) {
	mediaType, payload, err := splitDataURI(uri)
	if err != nil {
		return "", nil, err
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode image payload: %w", err)
	}
	return mediaType, data, nil
}
