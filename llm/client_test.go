package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newFakeAPI(t *testing.T, status int, reply string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		req := chatRequest{}
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.WriteHeader(status)
		resp := chatResponse{}
		resp.Choices = []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: reply}}}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestCompleteReturnsReply(t *testing.T) {
	api := newFakeAPI(t, http.StatusOK, "enhanced text")
	defer api.Close()

	c, err := NewClient("test-key", "test-model", WithBaseURL(api.URL))
	assert.Nil(t, err)

	reply, err := c.Complete(context.Background(), "preamble", "prompt")
	assert.Nil(t, err)
	assert.Equal(t, "enhanced text", reply)
}

func TestCompleteNonOKStatus(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer api.Close()

	c, err := NewClient("test-key", "test-model", WithBaseURL(api.URL))
	assert.Nil(t, err)

	_, err = c.Complete(context.Background(), "p", "q")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestCompleteAPIError(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[],"error":{"message":"bad model"}}`))
	}))
	defer api.Close()

	c, err := NewClient("test-key", "test-model", WithBaseURL(api.URL))
	assert.Nil(t, err)

	_, err = c.Complete(context.Background(), "p", "q")
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "bad model")
}

func TestCompleteNoChoices(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer api.Close()

	c, err := NewClient("test-key", "test-model", WithBaseURL(api.URL))
	assert.Nil(t, err)

	_, err = c.Complete(context.Background(), "p", "q")
	assert.NotNil(t, err)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", "model")
	assert.NotNil(t, err)

	_, err = NewClient("key", "")
	assert.NotNil(t, err)
}
