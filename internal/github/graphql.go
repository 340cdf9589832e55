package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// graphql sends a query through the authenticated client and decodes data into out
func (c *RESTClient) graphql(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Client().Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute GraphQL request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read GraphQL response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GraphQL request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse GraphQL response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			messages[i] = e.Message
		}
		return fmt.Errorf("GraphQL query failed: %s", strings.Join(messages, "; "))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

const findForkQuery = `query FindFork($owner: String!, $name: String!) {
	repository(owner: $owner, name: $name) {
		forks(affiliations: [OWNER], first: 1, orderBy: {field: NAME, direction: ASC}) {
			nodes {
				name
				owner { login }
			}
		}
	}
}`

// FindUserFork returns the authenticated user's fork of the upstream repository
func (c *RESTClient) FindUserFork(ctx context.Context) (*Fork, error) {
	var data struct {
		Repository struct {
			Forks struct {
				Nodes []struct {
					Name  string `json:"name"`
					Owner struct {
						Login string `json:"login"`
					} `json:"owner"`
				} `json:"nodes"`
			} `json:"forks"`
		} `json:"repository"`
	}
	if err := c.graphql(ctx, findForkQuery, map[string]any{"owner": c.owner, "name": c.name}, &data); err != nil {
		return nil, err
	}
	nodes := data.Repository.Forks.Nodes
	if len(nodes) == 0 {
		return nil, fmt.Errorf("unable to find a fork of %s/%s owned by the authenticated user", c.owner, c.name)
	}
	return &Fork{Owner: nodes[0].Owner.Login, Name: nodes[0].Name}, nil
}
