package responseformat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	PhaseName string  `json:"phase_name"`
	Phase     float64 `json:"phase"`
}

func TestWriteResponseJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/phase/2024-03-10", nil)

	err := NewFormatter().WriteResponse(rec, req, payload{"Full Moon", 0.5}, map[string]string{"Cache-Control": "max-age=60"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "max-age=60", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"phase_name":"Full Moon","phase":0.5}`, rec.Body.String())
}

func TestWriteResponseMsgPackUsesJSONTags(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/phase/2024-03-10?format=msgpack", nil)

	require.NoError(t, NewFormatter().WriteResponse(rec, req, payload{"Full Moon", 0.5}, nil))
	assert.Equal(t, ContentTypeMsgPack, rec.Header().Get("Content-Type"))

	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "Full Moon", decoded["phase_name"])
	assert.Equal(t, 0.5, decoded["phase"])
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/phase/nope", nil)

	require.NoError(t, NewFormatter().WriteError(rec, req, http.StatusBadRequest, "invalid date"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrorBody{Error: "invalid date", Status: http.StatusBadRequest}, body)
}
