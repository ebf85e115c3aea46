// Package remote drives codecs and metrics hosted by an external encode
// service over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/CodecEval/internal/measure"
	"github.com/MikeSquared-Agency/CodecEval/internal/rd"
)

type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// WithTimeout replaces the per-request timeout. Large images at high
// effort settings can take longer than the default.
func (c *HTTPClient) WithTimeout(d time.Duration) *HTTPClient {
	c.httpClient.Timeout = d
	return c
}

func (c *HTTPClient) doReq(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("encoder %s %s: %d %s", method, path, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

type encodeRequest struct {
	Codec   string                   `json:"codec"`
	Version string                   `json:"version,omitempty"`
	Params  map[string]rd.ParamValue `json:"params,omitempty"`
	Quality float64                  `json:"quality"`
	Image   *measure.Image           `json:"image"`
}

type encodeResponse struct {
	Data []byte `json:"data"`
}

type decodeRequest struct {
	Codec string `json:"codec"`
	Data  []byte `json:"data"`
}

type metricRequest struct {
	Reference *measure.Image `json:"reference"`
	Test      *measure.Image `json:"test"`
}

type metricResponse struct {
	Score float64 `json:"score"`
}

// Codec is a measure.Codec served remotely.
type Codec struct {
	client *HTTPClient
	config rd.CodecConfig
}

func (c *HTTPClient) Codec(config rd.CodecConfig) *Codec {
	return &Codec{client: c, config: config}
}

func (c *Codec) Name() string           { return c.config.Codec }
func (c *Codec) Config() rd.CodecConfig { return c.config }

func (c *Codec) Encode(ctx context.Context, img *measure.Image, quality float64) ([]byte, error) {
	var resp encodeResponse
	err := c.client.doReq(ctx, http.MethodPost, "/encode", encodeRequest{
		Codec:   c.config.Codec,
		Version: c.config.Version,
		Params:  c.config.Params,
		Quality: quality,
		Image:   img,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("encoder returned empty stream for %s q=%v", c.config.Codec, quality)
	}
	return resp.Data, nil
}

func (c *Codec) Decode(ctx context.Context, data []byte) (*measure.Image, error) {
	var img measure.Image
	if err := c.client.doReq(ctx, http.MethodPost, "/decode", decodeRequest{Codec: c.config.Codec, Data: data}, &img); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.config.Codec, err)
	}
	return &img, nil
}

// Metric is a measure.Metric served remotely.
type Metric struct {
	client    *HTTPClient
	name      string
	direction rd.QualityDirection
}

func (c *HTTPClient) Metric(name string, direction rd.QualityDirection) *Metric {
	return &Metric{client: c, name: name, direction: direction}
}

func (m *Metric) Name() string                   { return m.name }
func (m *Metric) Direction() rd.QualityDirection { return m.direction }

func (m *Metric) Score(ctx context.Context, reference, test *measure.Image) (float64, error) {
	var resp metricResponse
	if err := m.client.doReq(ctx, http.MethodPost, "/metric/"+m.name, metricRequest{Reference: reference, Test: test}, &resp); err != nil {
		return 0, err
	}
	return resp.Score, nil
}

// Ssimulacra2 and Butteraugli are the two metrics the calibration needs.
func (c *HTTPClient) Ssimulacra2() *Metric { return c.Metric("ssimulacra2", rd.HigherIsBetter) }
func (c *HTTPClient) Butteraugli() *Metric { return c.Metric("butteraugli", rd.LowerIsBetter) }

var (
	_ measure.Codec  = (*Codec)(nil)
	_ measure.Metric = (*Metric)(nil)
)
