package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	httpinterface "github.com/walletd/walletd/internal/interfaces/http"
)

const requestTimeout = 30 * time.Second

type operatorClient struct {
	baseURL string
	client  *http.Client
}

func newOperatorClient(address string) *operatorClient {
	baseURL := address
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &operatorClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: requestTimeout},
	}
}

func getOperatorClient() (*operatorClient, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	address, ok := state["rpcserver"]
	if !ok {
		return nil, errors.New("set rpcserver with `config set rpcserver`")
	}
	return newOperatorClient(address), nil
}

func (c *operatorClient) getSession(
	ctx context.Context,
) (*httpinterface.SessionResponse, error) {
	res := &httpinterface.SessionResponse{}
	if err := c.do(ctx, http.MethodGet, "/v1/session", nil, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *operatorClient) do(
	ctx context.Context, method, path string, body, out interface{},
) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("unable to connect to operator server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errResp := httpinterface.ErrorResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil ||
			errResp.Error == "" {
			return fmt.Errorf("request failed with status %s", resp.Status)
		}
		return errors.New(errResp.Error)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
