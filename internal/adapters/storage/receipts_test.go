package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestReceiptKey(t *testing.T) {
	id := uuid.MustParse("6f1c1b8e-4f7a-4d55-9d2f-2d7e9c1c0a11")

	key := ReceiptKey(id, "../Fee Receipt (May).PDF")
	prefix := "receipts/" + id.String() + "/Fee-Receipt-May_"
	if !strings.HasPrefix(key, prefix) {
		t.Fatalf("expected prefix %q, got %q", prefix, key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("expected lowercase extension, got %q", key)
	}

	if key := ReceiptKey(id, "$$$.png"); !strings.Contains(key, "/receipt_") {
		t.Fatalf("expected fallback base name, got %q", key)
	}
}

func TestValidateReceipt(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     bool
	}{
		{name: "pdf", contentType: "application/pdf", size: 100},
		{name: "png with params", contentType: "image/PNG; charset=binary", size: 100},
		{name: "video rejected", contentType: "video/mp4", size: 100, wantErr: true},
		{name: "empty file", contentType: "image/jpeg", size: 0, wantErr: true},
		{name: "too large", contentType: "image/jpeg", size: 2048, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReceipt(tt.contentType, tt.size, 1024)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
