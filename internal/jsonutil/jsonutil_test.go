package jsonutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON(t *testing.T) {
	type payload struct {
		SeatIDs []string `json:"seatIds"`
	}

	tests := []struct {
		name      string
		body      string
		malformed bool
	}{
		{name: "valid body", body: `{"seatIds":["C4"]}`},
		{name: "syntax error", body: `{"seatIds":`, malformed: true},
		{name: "wrong type", body: `{"seatIds":"C4"}`, malformed: true},
		{name: "empty body", body: ``, malformed: true},
		{name: "unknown field", body: `{"seats":["C4"]}`, malformed: true},
		{name: "two values", body: `{"seatIds":[]}{}`, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var dst payload
			err := ReadJSON(w, r, &dst)

			if !tt.malformed {
				require.NoError(t, err)
				assert.Equal(t, []string{"C4"}, dst.SeatIDs)
				return
			}

			var merr *MalformedError
			assert.True(t, errors.As(err, &merr), "got %v", err)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteJSON(w, http.StatusCreated, map[string]string{"status": "ok"}, http.Header{"X-Test": []string{"1"}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "1", w.Header().Get("X-Test"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
