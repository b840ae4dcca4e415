package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// apiClient is a thin HTTP client over the Control Plane (§6), used by
// every subcommand except "serve" and "run" (which build the engine
// in-process), "init" (which only writes a manifest) and "logs" (which
// reads a run's events.jsonl from disk). Grounded on the teacher's flag-resolution idiom
// (cmd/wave/commands/output.go's GetOutputConfig reading persistent
// flags off cmd.Root()).
type apiClient struct {
	baseURL string
	http    *http.Client
}

func clientFor(cmd *cobra.Command) *apiClient {
	base, _ := cmd.Root().PersistentFlags().GetString("server")
	return &apiClient{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("graphctl: %s %s: %w (is \"graphctl serve\" running at %s?)", method, path, err, c.baseURL)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, string(data))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *apiClient) get(path string, out any) error  { return c.do(http.MethodGet, path, nil, out) }
func (c *apiClient) post(path string, body, out any) error {
	return c.do(http.MethodPost, path, body, out)
}
func (c *apiClient) patch(path string, body, out any) error {
	return c.do(http.MethodPatch, path, body, out)
}
func (c *apiClient) delete(path string) error { return c.do(http.MethodDelete, path, nil, nil) }

// printJSON pretty-prints v to stdout. The node, edge, message and
// approve subcommands print their API responses with it unconditionally;
// status uses it only when -o json is requested
// (cmd/wave/commands/output.go's OutputFormatJSON convention).
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
