package memory

import (
	"testing"

	"receipts-backend/internal/store"
	"receipts-backend/internal/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return New()
	})
}
