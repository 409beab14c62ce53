// Package directory resolves the signed-in user's manager chain and direct
// reports from Microsoft Graph. Every call is best-effort: transport errors
// and non-200 responses degrade to empty data so a directory outage never
// takes sign-in down with it.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"dialogue/internal/domain/identity"
)

const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Name returns the friendliest non-empty identifier Graph gave us.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}

func (u User) Email() string {
	if u.Mail != "" {
		return u.Mail
	}
	return u.UserPrincipalName
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// Resolution is everything sign-in needs from the directory.
type Resolution struct {
	ManagerName        string
	ProgramManagerName string
	DirectReports      []identity.Report
}

// Resolve gathers the direct manager, the top-of-chain program manager and
// the direct-report roster in one pass.
func (c *Client) Resolve(ctx context.Context, token string) Resolution {
	var res Resolution
	if token == "" {
		return res
	}

	manager, ok := c.Manager(ctx, token)
	if ok {
		res.ManagerName = manager.Name()
		res.ProgramManagerName = c.ProgramManager(ctx, token, manager.ID, manager.Name())
	}
	res.DirectReports = c.DirectReports(ctx, token)
	return res
}

// Manager fetches the caller's direct manager. A 404 means no manager is
// assigned and is not an error.
func (c *Client) Manager(ctx context.Context, token string) (User, bool) {
	resp, err := c.get(ctx, c.baseURL+"/me/manager", token)
	if err != nil {
		slog.Warn("directory manager lookup failed", "err", err)
		return User{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return User{}, false
	}
	if resp.StatusCode != http.StatusOK {
		slog.Warn("directory manager lookup failed", "status", resp.StatusCode)
		return User{}, false
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		slog.Warn("directory manager decode failed", "err", err)
		return User{}, false
	}
	if user.Name() == "" {
		return User{}, false
	}
	return user, true
}

// ProgramManager walks the manager chain upward from managerID and returns
// the display name at the top. A visited set guards against reporting-line
// cycles; a detected cycle is a directory data-quality problem and is logged,
// with the walk stopping at the last sound link.
func (c *Client) ProgramManager(ctx context.Context, token, managerID, managerName string) string {
	programManager := managerName
	visited := make(map[string]bool)

	currentID := managerID
	for currentID != "" {
		if visited[currentID] {
			slog.Warn("manager chain cycle detected", "id", currentID)
			break
		}
		visited[currentID] = true

		resp, err := c.get(ctx, fmt.Sprintf("%s/users/%s/manager", c.baseURL, currentID), token)
		if err != nil {
			slog.Warn("program manager lookup failed", "err", err)
			break
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			break
		}
		if resp.StatusCode != http.StatusOK {
			slog.Warn("program manager lookup failed", "status", resp.StatusCode)
			resp.Body.Close()
			break
		}

		var next User
		err = json.NewDecoder(resp.Body).Decode(&next)
		resp.Body.Close()
		if err != nil {
			slog.Warn("program manager decode failed", "err", err)
			break
		}

		if name := next.Name(); name != "" {
			programManager = name
		}
		currentID = next.ID
	}

	return programManager
}

// DirectReports fetches the caller's direct reports, following Graph's
// @odata.nextLink pagination until exhausted.
func (c *Client) DirectReports(ctx context.Context, token string) []identity.Report {
	var reports []identity.Report
	nextURL := c.baseURL + "/me/directReports?$select=id,displayName,mail,userPrincipalName"

	for nextURL != "" {
		resp, err := c.get(ctx, nextURL, token)
		if err != nil {
			slog.Warn("direct reports lookup failed", "err", err)
			return reports
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil
		}
		if resp.StatusCode != http.StatusOK {
			slog.Warn("direct reports lookup failed", "status", resp.StatusCode)
			resp.Body.Close()
			return reports
		}

		var page struct {
			Value    []User `json:"value"`
			NextLink string `json:"@odata.nextLink"`
		}
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			slog.Warn("direct reports decode failed", "err", err)
			return reports
		}

		for _, user := range page.Value {
			name := user.Name()
			if name == "" {
				continue
			}
			reports = append(reports, identity.Report{
				OID:   user.ID,
				Name:  name,
				Email: user.Email(),
			})
		}
		nextURL = page.NextLink
	}

	return reports
}

func (c *Client) get(ctx context.Context, url, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.httpClient.Do(req)
}
