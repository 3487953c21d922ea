package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const codeTransportError = "transport_error"

type apiClient struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	col     *collector
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// call выполняет запрос и записывает латентность под именем method.
func (c *apiClient) call(method, name, path string, body any, out any) error {
	start := time.Now()
	code, err := c.do(method, path, body, out)
	c.col.record(name, time.Since(start), code)
	return err
}

func (c *apiClient) do(method, path string, body any, out any) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return codeTransportError, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return codeTransportError, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return codeTransportError, err
	}
	defer resp.Body.Close()

	code := strconv.Itoa(resp.StatusCode)
	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)
		return code, fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return code, fmt.Errorf("decode response: %w", err)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return code, fmt.Errorf("decode response data: %w", err)
		}
	}
	return code, nil
}

type createdMenu struct {
	ID int64 `json:"id"`
}

func (c *apiClient) getTree(depth int, noCache bool) error {
	path := "/api/menus?depth=" + strconv.Itoa(depth)
	if noCache {
		path += "&cache=false"
	}
	return c.call(http.MethodGet, "GetTree", path, nil, nil)
}

func (c *apiClient) createMenu(name string) (int64, error) {
	var created createdMenu
	if err := c.call(http.MethodPost, "CreateMenu", "/api/menus", map[string]any{"name": name}, &created); err != nil {
		return 0, err
	}
	if created.ID <= 0 {
		return 0, errors.New("create response returned empty menu id")
	}
	return created.ID, nil
}

func (c *apiClient) renameMenu(id int64, name string) error {
	return c.call(http.MethodPut, "UpdateMenu", menuPath(id), map[string]any{"name": name}, nil)
}

func (c *apiClient) getChildren(id int64) error {
	return c.call(http.MethodGet, "GetChildren", menuPath(id)+"/children", nil, nil)
}

func (c *apiClient) deleteMenu(id int64) error {
	return c.call(http.MethodDelete, "DeleteMenu", menuPath(id), nil, nil)
}

func menuPath(id int64) string {
	return "/api/menus/" + strconv.FormatInt(id, 10)
}

// runScenario выполняет один сценарий; созданные пункты удаляются,
// чтобы прогон не раздувал дерево.
func runScenario(client *apiClient, cfg config, index int, runID string) (err error) {
	start := time.Now()
	defer func() {
		code := "ok"
		if err != nil {
			code = "failed"
		}
		client.col.record(scenarioName, time.Since(start), code)
	}()

	if cfg.mode == modeRead {
		return client.getTree(cfg.depth, cfg.noCache)
	}

	name := fmt.Sprintf("%s-%s-%d", cfg.namePrefix, runID, index)
	id, err := client.createMenu(name)
	if err != nil {
		return err
	}

	switch cfg.mode {
	case modeWrite:
		if err := client.renameMenu(id, name+"-renamed"); err != nil {
			return err
		}
	case modeMixed:
		if err := client.getTree(cfg.depth, cfg.noCache); err != nil {
			return err
		}
		if err := client.getChildren(id); err != nil {
			return err
		}
	}

	return client.deleteMenu(id)
}
