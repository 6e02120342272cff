package pagination_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tokencustody/token_custody_app/internal/utils/pagination"
)

func TestEncodeDecodeToken(t *testing.T) {
	createdAt := time.Date(2025, 6, 12, 9, 30, 0, 123456789, time.UTC)
	id := "3f0c9c1e-9f2a-4f0d-8d84-0f0a8b1c2d3e"

	token := pagination.EncodeToken(createdAt, id)
	gotTime, gotID, err := pagination.DecodeToken(token)

	assert.NoError(t, err)
	assert.True(t, createdAt.Equal(gotTime))
	assert.Equal(t, id, gotID)
}

func TestDecodeToken_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "not base64", token: "!!!not-base64!!!"},
		{name: "missing separator", token: "bm9zZXBhcmF0b3I="},         // "noseparator"
		{name: "bad timestamp", token: "bm90LWEtdGltZXxzb21lLWlk"},     // "not-a-time|some-id"
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := pagination.DecodeToken(tt.token)
			assert.Error(t, err)
		})
	}
}
