/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	applog "mandatuvideo/internal/log"
)

// GitHubContent writes files into a repository folder through the GitHub
// contents API (PUT /repos/{owner}/{repo}/contents/{path}).
type GitHubContent struct {
	BaseURL string
	Owner   string
	Repo    string
	Folder  string
	Branch  string
	Token   string // bearer token
	client  *http.Client
}

// NewGitHubContent creates a contents client. baseURL may include a trailing
// slash; it will be normalized. An empty baseURL means api.github.com.
func NewGitHubContent(baseURL, owner, repo, folder, token string, timeout time.Duration) *GitHubContent {
	b := strings.TrimRight(baseURL, "/")
	if b == "" {
		b = "https://api.github.com"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &GitHubContent{
		BaseURL: b,
		Owner:   owner,
		Repo:    repo,
		Folder:  strings.Trim(folder, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx answer from the contents API.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github %s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("github %s %s: %d", e.Method, e.Path, e.Status)
}

type putContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type contentInfo struct {
	SHA  string `json:"sha"`
	Path string `json:"path"`
}

// WriteFile creates Folder/name in the repository. When the file already
// exists its current sha is fetched and the file is replaced.
func (c *GitHubContent) WriteFile(ctx context.Context, name string, data []byte) error {
	if c.Token == "" {
		return errors.New("github token is not configured")
	}
	p := c.contentPath(name)
	req := putContentRequest{
		Message: "Guardando archivo " + path.Base(name),
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  c.Branch,
	}
	err := c.doJSON(ctx, http.MethodPut, p, req, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnprocessableEntity {
		// the file exists; an update needs its blob sha
		var info contentInfo
		q := p
		if c.Branch != "" {
			q += "?ref=" + url.QueryEscape(c.Branch)
		}
		if gerr := c.doJSON(ctx, http.MethodGet, q, nil, &info); gerr != nil {
			return fmt.Errorf("lookup existing %s: %w", name, gerr)
		}
		req.SHA = info.SHA
		err = c.doJSON(ctx, http.MethodPut, p, req, nil)
	}
	if err != nil {
		return err
	}
	applog.WithOperation(applog.WithComponent("backend"), "github_put").Debug("content written",
		slog.String("repo", c.Owner+"/"+c.Repo), slog.String("path", p))
	return nil
}

func (c *GitHubContent) contentPath(name string) string {
	full := strings.TrimLeft(path.Join(c.Folder, name), "/")
	segs := strings.Split(full, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("/repos/%s/%s/contents/%s", url.PathEscape(c.Owner), url.PathEscape(c.Repo), strings.Join(segs, "/"))
}

func (c *GitHubContent) doJSON(ctx context.Context, method, p string, body, dest any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+p, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ghErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&ghErr)
		return &APIError{Method: method, Path: req.URL.Path, Status: resp.StatusCode, Message: ghErr.Message}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
