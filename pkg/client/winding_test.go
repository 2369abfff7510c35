package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinarmengineering/ltc/pkg/quantity"
	"github.com/tinarmengineering/ltc/pkg/units"
)

func withWindingServer(t *testing.T, status int, response string, action func(w *WindingApi, last func() (string, string))) {
	var mutex sync.Mutex
	var path, body string
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, r.Method)
		mutex.Lock()
		path, body = r.URL.Path, string(data)
		mutex.Unlock()
		rw.WriteHeader(status)
		_, _ = rw.Write([]byte(response))
	}))
	defer server.Close()

	action(NewWindingApi(server.URL, units.NewRegistry()), func() (string, string) {
		mutex.Lock()
		defer mutex.Unlock()
		return path, body
	})
}

func TestWindingApi_CreateWinding(t *testing.T) {
	withWindingServer(t, http.StatusOK, `{"id": 1}`, func(w *WindingApi, last func() (string, string)) {
		result, err := w.CreateWinding(context.Background(), map[string]interface{}{"param": "value"})
		require.NoError(t, err)
		assert.Equal(t, map[string]interface{}{"id": 1.0}, result)

		path, body := last()
		assert.Equal(t, "/winding", path)
		assert.JSONEq(t, `{"param": "value"}`, body)
	})
}

func TestWindingApi_CreateWindingArray(t *testing.T) {
	withWindingServer(t, http.StatusOK, `[{"id": 1}]`, func(w *WindingApi, last func() (string, string)) {
		result, err := w.CreateWindingArray(context.Background(), map[string]interface{}{"param": "value"})
		require.NoError(t, err)
		assert.Equal(t, []interface{}{map[string]interface{}{"id": 1.0}}, result)

		path, _ := last()
		assert.Equal(t, "/winding_array", path)
	})
}

func TestWindingApi_CreateWindingReport(t *testing.T) {
	withWindingServer(t, http.StatusOK, "test report", func(w *WindingApi, last func() (string, string)) {
		report, err := w.CreateWindingReport(context.Background(), map[string]interface{}{"param": "value"})
		require.NoError(t, err)
		assert.Equal(t, "test report", report)

		path, _ := last()
		assert.Equal(t, "/windingreport", path)
	})
}

func TestWindingApi_CreateWindingNetlistEncodesQuantities(t *testing.T) {
	withWindingServer(t, http.StatusOK, `[{"id": 1}]`, func(w *WindingApi, last func() (string, string)) {
		reg := units.NewRegistry()
		params := map[string]interface{}{
			"number_slots":        12,
			"terminal_resistance": quantity.MustParse(reg, 10, "microohm"),
			"fill_factor":         61.68,
		}
		result, err := w.CreateWindingNetlist(context.Background(), params)
		require.NoError(t, err)
		assert.Len(t, result, 1)

		path, body := last()
		assert.Equal(t, "/winding_netlist", path)
		assert.JSONEq(t, `{
			"number_slots": 12,
			"fill_factor": 61.68,
			"terminal_resistance": {
				"magnitude": [10],
				"shape": [],
				"units": [{"name": "microohm", "exponent": 1}],
				"unit_string": "microohm"
			}
		}`, body)
	})
}

func TestWindingApi_UnsupportedUnit(t *testing.T) {
	withWindingServer(t, http.StatusOK, `[]`, func(w *WindingApi, last func() (string, string)) {
		q := quantity.Scalar(1, units.Of("smoot", 1))
		_, err := w.CreateWindingNetlist(context.Background(), map[string]interface{}{"length": q})
		var unsupported *units.ErrUnsupportedUnit
		assert.True(t, errors.As(err, &unsupported))
		path, _ := last()
		assert.Empty(t, path)
	})
}

func TestWindingApi_ErrorStatus(t *testing.T) {
	withWindingServer(t, http.StatusInternalServerError, "boom", func(w *WindingApi, _ func() (string, string)) {
		_, err := w.CreateWinding(context.Background(), map[string]interface{}{"param": "value"})
		var collaborator *ErrCollaborator
		require.True(t, errors.As(err, &collaborator))
		assert.Equal(t, http.StatusInternalServerError, collaborator.StatusCode)
	})
}
