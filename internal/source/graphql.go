// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GraphQL loads rows from a GraphQL query result.
type GraphQL struct {
	Endpoint  string
	Query     string
	Variables map[string]any
	// Path is the dotted path below "data" to a list of objects, for
	// example "objects.items". A leading "data." is ignored. An empty path
	// uses the only field of "data".
	Path    string
	Headers map[string]string
	Timeout time.Duration
	Client  *http.Client
	Logger  *zap.Logger
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// Load posts the query and converts the list at Path to a Table.
func (g *GraphQL) Load(ctx context.Context) (*Table, error) {
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(graphqlRequest{Query: g.Query, Variables: g.Variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode GraphQL request: %w", err)
	}

	ctx, cancel := timeoutContext(ctx, g.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	for k, v := range g.Headers {
		req.Header.Set(k, v)
	}

	logger.Debug("sending graphql query",
		zap.String("endpoint", g.Endpoint),
		zap.String("request_id", requestID))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GraphQL request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read GraphQL response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrGraphQL, resp.StatusCode)
	}

	var decoded graphqlResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode GraphQL response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		msgs := make([]string, len(decoded.Errors))
		for i, e := range decoded.Errors {
			msgs[i] = e.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
	}

	list, name, err := walkPath(decoded.Data, g.Path)
	if err != nil {
		return nil, err
	}

	rows, keys, err := decodeObjects(list)
	if err != nil {
		return nil, err
	}

	logger.Info("loaded graphql result",
		zap.String("request_id", requestID),
		zap.String("path", name),
		zap.Int("rows", len(rows)))
	return newTable(name, keys, rows), nil
}

// walkPath follows a dotted path through nested objects and returns the
// raw JSON array found there, together with the last path segment.
func walkPath(data json.RawMessage, path string) (json.RawMessage, string, error) {
	if path == "data" {
		path = ""
	}
	path = strings.TrimPrefix(path, "data.")

	current := data
	name := "data"
	if path == "" {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(current, &fields); err != nil || len(fields) != 1 {
			return nil, "", fmt.Errorf("%w: data must have exactly one field when no path is given", ErrPathNotFound)
		}
		for k, v := range fields {
			name, current = k, v
		}
	} else {
		for _, segment := range strings.Split(path, ".") {
			var fields map[string]json.RawMessage
			if err := json.Unmarshal(current, &fields); err != nil {
				return nil, "", fmt.Errorf("%w: %q is not an object", ErrPathNotFound, name)
			}
			next, ok := fields[segment]
			if !ok {
				return nil, "", fmt.Errorf("%w: no field %q", ErrPathNotFound, segment)
			}
			name, current = segment, next
		}
	}

	trimmed := bytes.TrimSpace(current)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, "", fmt.Errorf("%w: %q is not a list", ErrPathNotFound, name)
	}
	return trimmed, name, nil
}
