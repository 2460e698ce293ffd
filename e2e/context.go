package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// TestContext is the per-scenario HTTP client state shared by step packages.
type TestContext struct {
	baseURL    string
	adminToken string
	client     *http.Client

	runID        string
	lastStatus   int
	lastBody     []byte
	lastResponse map[string]any
	saved        map[string]string
}

func NewTestContext(baseURL, adminToken string) *TestContext {
	return &TestContext{
		baseURL:    baseURL,
		adminToken: adminToken,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears state between scenarios and picks a fresh suffix so names and
// emails never collide with earlier runs against the same server.
func (tc *TestContext) Reset() {
	tc.runID = strconv.FormatInt(time.Now().UnixNano(), 36)
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastResponse = nil
	tc.saved = make(map[string]string)
}

func (tc *TestContext) RunID() string {
	return tc.runID
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) AdminPOST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, tc.adminHeaders())
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) AdminGET(path string) error {
	return tc.do(http.MethodGet, path, nil, tc.adminHeaders())
}

func (tc *TestContext) AdminDELETE(path string) error {
	return tc.do(http.MethodDelete, path, nil, tc.adminHeaders())
}

func (tc *TestContext) adminHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + tc.adminToken}
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastResponse = nil
	if len(tc.lastBody) > 0 {
		var parsed map[string]any
		if err := json.Unmarshal(tc.lastBody, &parsed); err == nil {
			tc.lastResponse = parsed
		}
	}
	return nil
}

func (tc *TestContext) GetLastStatus() int {
	return tc.lastStatus
}

func (tc *TestContext) GetLastBody() string {
	return string(tc.lastBody)
}

func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.lastResponse == nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", tc.lastBody)
	}
	v, ok := tc.lastResponse[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

func (tc *TestContext) Save(key, value string) {
	tc.saved[key] = value
}

func (tc *TestContext) Saved(key string) string {
	return tc.saved[key]
}
