package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/tinarmengineering/ltc/pkg/quantity"
	"github.com/tinarmengineering/ltc/pkg/units"
)

// WindingApi is a client for the auxiliary winding design service.
type WindingApi struct {
	rootUrl    string
	reg        *units.Registry
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewWindingApi(rootUrl string, reg *units.Registry) *WindingApi {
	return &WindingApi{
		rootUrl:    strings.TrimSuffix(rootUrl, "/"),
		reg:        reg,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    newLimiter(DefaultRateLimit, 0),
	}
}

func (w *WindingApi) CreateWinding(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	result := map[string]interface{}{}
	if err := w.post(ctx, "create winding", "/winding", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (w *WindingApi) CreateWindingArray(ctx context.Context, params map[string]interface{}) ([]interface{}, error) {
	var result []interface{}
	if err := w.post(ctx, "create winding array", "/winding_array", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// CreateWindingReport returns the report text as produced by the service.
func (w *WindingApi) CreateWindingReport(ctx context.Context, params map[string]interface{}) (string, error) {
	body, err := w.encodeParams(params)
	if err != nil {
		return "", err
	}
	data, err := send(ctx, w.httpClient, w.limiter, "create winding report", http.MethodPost, w.rootUrl+"/windingreport", body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CreateWindingNetlist accepts quantity values among the parameters; they are sent as wire records.
func (w *WindingApi) CreateWindingNetlist(ctx context.Context, params map[string]interface{}) ([]interface{}, error) {
	var result []interface{}
	if err := w.post(ctx, "create winding netlist", "/winding_netlist", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (w *WindingApi) post(ctx context.Context, operation string, path string, params map[string]interface{}, result interface{}) error {
	body, err := w.encodeParams(params)
	if err != nil {
		return err
	}
	data, err := send(ctx, w.httpClient, w.limiter, operation, http.MethodPost, w.rootUrl+path, body)
	if err != nil {
		return err
	}
	return decodeResult(operation, data, result)
}

func (w *WindingApi) encodeParams(params map[string]interface{}) (map[string]interface{}, error) {
	encoded := make(map[string]interface{}, len(params))
	for key, value := range params {
		q, ok := value.(*quantity.Quantity)
		if !ok {
			encoded[key] = value
			continue
		}
		rec, err := quantity.Encode(w.reg, q)
		if err != nil {
			return nil, errors.WithMessagef(err, "encoding parameter %s", key)
		}
		encoded[key] = rec
	}
	return encoded, nil
}
