package httputil

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetJSON_Success(t *testing.T) {
	t.Parallel()
	mock := NewMockHTTPClient().AddResponse(http.StatusOK, `{"label":"Good","color":"#8BC34A"}`)

	var got struct {
		Label string `json:"label"`
		Color string `json:"color"`
	}
	err := GetJSON(context.Background(), mock, "http://rail.test/api/assess?score=12", &got)
	require.NoError(t, err)
	assert.Equal(t, "Good", got.Label)
	assert.Equal(t, "#8BC34A", got.Color)

	require.Equal(t, 1, mock.RequestCount())
	req := mock.Requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "12", req.URL.Query().Get("score"))
}

func TestGetJSON_ServerError(t *testing.T) {
	t.Parallel()
	mock := NewMockHTTPClient().AddResponse(http.StatusBadRequest, `{"error":"invalid parameter: length must be greater than 2, got 1"}`)

	var v map[string]interface{}
	err := GetJSON(context.Background(), mock, "http://rail.test/api/rails?length=1", &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "length must be greater than 2")
}

func TestGetJSON_PlainTextError(t *testing.T) {
	t.Parallel()
	mock := NewMockHTTPClient().AddResponse(http.StatusBadGateway, "upstream gone\n")

	var v map[string]interface{}
	err := GetJSON(context.Background(), mock, "http://rail.test/api/rails", &v)
	assert.EqualError(t, err, "server returned 502: upstream gone")
}

func TestGetJSON_TransportError(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection refused")
	mock := NewMockHTTPClient().AddErrorResponse(boom)

	var v map[string]interface{}
	err := GetJSON(context.Background(), mock, "http://rail.test/api/rails", &v)
	assert.ErrorIs(t, err, boom)
}

func TestGetJSON_BadBody(t *testing.T) {
	t.Parallel()
	mock := NewMockHTTPClient().AddResponse(http.StatusOK, `{not json`)

	var v map[string]interface{}
	err := GetJSON(context.Background(), mock, "http://rail.test/api/rails", &v)
	assert.ErrorContains(t, err, "decode")
}

func TestGetJSON_BadURL(t *testing.T) {
	t.Parallel()
	var v map[string]interface{}
	err := GetJSON(context.Background(), NewMockHTTPClient(), "://bad", &v)
	assert.Error(t, err)
}

func TestMockHTTPClient_DrainedQueue(t *testing.T) {
	t.Parallel()
	mock := NewMockHTTPClient()
	req, err := http.NewRequest(http.MethodGet, "http://rail.test/", nil)
	require.NoError(t, err)

	resp, err := mock.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
