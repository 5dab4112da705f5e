package edge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriber_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)

		json.NewEncoder(w).Encode(chatResponse{
			Choices: []struct {
				Message chatMessage `json:"message"`
			}{
				{Message: chatMessage{Role: "assistant", Content: "وصف مولد للمنتج."}},
			},
		})
	}))
	defer server.Close()

	d := NewDescriber(server.URL, "test-key", "gpt-4o-mini")
	result := d.Describe(context.Background(), DescribeRequest{
		ProductName: "أحمر شفاه",
		Categories:  []string{"مكياج"},
	})

	assert.Equal(t, "وصف مولد للمنتج.", result.Description)
}

func TestDescriber_UpstreamErrorFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	d := NewDescriber(server.URL, "test-key", "gpt-4o-mini")

	// With a current description, the fallback keeps it.
	result := d.Describe(context.Background(), DescribeRequest{
		ProductName:        "أحمر شفاه",
		CurrentDescription: "الوصف الحالي",
	})
	assert.Equal(t, "الوصف الحالي", result.Description)

	// Without one, the fallback is built from the name and category.
	result = d.Describe(context.Background(), DescribeRequest{
		ProductName: "أحمر شفاه",
		Categories:  []string{"مكياج"},
	})
	assert.Contains(t, result.Description, "أحمر شفاه")
	assert.Contains(t, result.Description, "مكياج")
}

func TestDescriber_EmptyChoicesFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer server.Close()

	d := NewDescriber(server.URL, "test-key", "gpt-4o-mini")
	result := d.Describe(context.Background(), DescribeRequest{ProductName: "عطر"})

	assert.Contains(t, result.Description, "عطر")
}
