package analysis

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/oeonyangoemma-bot/agrivision/internal/config"
)

func imageDataURI(t *testing.T, mediaType string, size int) string {
	t.Helper()
	payload := base64.StdEncoding.EncodeToString(make([]byte, size))
	return "data:" + mediaType + ";base64," + payload
}

func TestValidateSubmission(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		wantField string
	}{
		{"valid", imageDataURI(t, "image/jpeg", 1024), ""},
		{"missing", "", "mediaDataUri"},
		{"whitespace only", "   ", "mediaDataUri"},
		{"not a data URI", "https://example.com/leaf.jpg", "mediaDataUri"},
		{"non-image media type", "data:text/plain;base64,aGVsbG8=", "mediaDataUri"},
		{"not base64 encoded", "data:image/png,rawbytes", "mediaDataUri"},
		{"missing payload", "data:image/png;base64,", "mediaDataUri"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateSubmission(tt.uri, config.DefaultMaxUploadBytes)
			if tt.wantField == "" {
				if len(errs) != 0 {
					t.Errorf("expected valid input, got %v", errs)
				}
				return
			}
			if _, ok := errs[tt.wantField]; !ok {
				t.Errorf("expected error on %q, got %v", tt.wantField, errs)
			}
		})
	}
}

func TestValidateSubmissionSizeCeiling(t *testing.T) {
	// 5 MiB payload against the 4 MiB ceiling.
	uri := imageDataURI(t, "image/jpeg", 5<<20)

	errs := ValidateSubmission(uri, config.DefaultMaxUploadBytes)
	if msg, ok := errs["mediaDataUri"]; !ok {
		t.Fatalf("expected size error, got %v", errs)
	} else if !strings.Contains(msg, "limit") {
		t.Errorf("unexpected error message: %q", msg)
	}

	// Just under the ceiling passes.
	under := imageDataURI(t, "image/jpeg", 3<<20)
	if errs := ValidateSubmission(under, config.DefaultMaxUploadBytes); len(errs) != 0 {
		t.Errorf("payload under the ceiling rejected: %v", errs)
	}
}

func TestDecodeDataURI(t *testing.T) {
	raw := []byte{0x89, 0x50, 0x4e, 0x47}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	mediaType, data, err := DecodeDataURI(uri)
	if err != nil {
		t.Fatalf("DecodeDataURI failed: %v", err)
	}
	if mediaType != "image/png" {
		t.Errorf("mediaType = %q, want image/png", mediaType)
	}
	if string(data) != string(raw) {
		t.Errorf("decoded payload mismatch")
	}

	if _, _, err := DecodeDataURI("data:image/png;base64,!!!"); err == nil {
		t.Error("expected error for invalid base64 payload")
	}
}
