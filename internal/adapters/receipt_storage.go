package adapters

import (
	"context"

	"admissions_crm_backend/internal/adapters/storage"
	paymentsports "admissions_crm_backend/internal/payments/ports"

	"github.com/google/uuid"
)

// ReceiptStorage adapts storage.ReceiptStore to the payments port.
type ReceiptStorage struct {
	store *storage.ReceiptStore
}

func NewReceiptStorage(store *storage.ReceiptStore) *ReceiptStorage {
	return &ReceiptStorage{store: store}
}

func (r *ReceiptStorage) PresignUpload(ctx context.Context, paymentID uuid.UUID, fileName, contentType string, sizeBytes int64) (paymentsports.PresignedURL, error) {
	u, err := r.store.PresignUpload(ctx, paymentID, fileName, contentType, sizeBytes)
	return paymentsports.PresignedURL(u), err
}

func (r *ReceiptStorage) PresignDownload(ctx context.Context, fileKey string) (paymentsports.PresignedURL, error) {
	u, err := r.store.PresignDownload(ctx, fileKey)
	return paymentsports.PresignedURL(u), err
}

var _ paymentsports.ReceiptStorage = (*ReceiptStorage)(nil)
