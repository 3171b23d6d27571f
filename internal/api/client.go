package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/imgshelf/imgshelf/internal/config"
	"github.com/imgshelf/imgshelf/internal/constants"
	ihttp "github.com/imgshelf/imgshelf/internal/http"
	"github.com/imgshelf/imgshelf/internal/logging"
	"github.com/imgshelf/imgshelf/internal/models"
)

// maxErrorBody caps how much of a failed response is kept in a StatusError.
const maxErrorBody = 4096

// Client talks JSON over HTTP to the images API. It implements Remote.
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *logging.Logger

	mu    sync.RWMutex
	token string

	calls atomic.Int64
}

var _ Remote = (*Client)(nil)

// NewClient creates a new API client from cfg. The token in cfg, if any,
// is sent as a bearer token on every call except Login.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.Named("api")

	httpClient, err := ihttp.NewRetryClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(constants.APIRatePerSec), constants.APIBurst),
		logger:     logger,
		token:      cfg.Token,
	}, nil
}

// SetToken replaces the bearer token used for subsequent calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the bearer token currently in use.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// CallCount returns how many requests this client has issued.
func (c *Client) CallCount() int64 {
	return c.calls.Load()
}

// doRequest performs an HTTP request with authentication and pacing
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, auth bool) (*nethttp.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}
	c.calls.Add(1)

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		token := c.Token()
		if token == "" {
			return nil, ErrAuthRequired
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Error().Err(err).
			Str("method", method).
			Str("path", path).
			Str("request_id", requestID).
			Msg("API call failed")
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, ErrTransport, err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Msg("API call")

	return resp, nil
}

// call runs one request and decodes a 2xx JSON body into out (when non-nil).
// Any other status becomes a *StatusError.
func (c *Client) call(ctx context.Context, op, method, path string, body, out interface{}, auth bool) error {
	resp, err := c.doRequest(ctx, method, path, body, auth)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s: empty response body: %w", op, ErrTransport)
		}
		return fmt.Errorf("%s: failed to decode response: %w: %w", op, ErrTransport, err)
	}
	return nil
}

// Login exchanges credentials for a bearer token and starts using it.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResult, error) {
	var result models.LoginResult
	req := models.LoginRequest{Username: username, Password: password}
	if err := c.call(ctx, "login", nethttp.MethodPost, "/auth/login", req, &result, false); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, fmt.Errorf("login: server returned no token: %w", ErrTransport)
	}
	if result.Username == "" {
		result.Username = username
	}
	c.SetToken(result.Token)
	return &result, nil
}

// ListFolders returns every folder visible to the user.
func (c *Client) ListFolders(ctx context.Context) ([]models.Folder, error) {
	var list models.FolderList
	if err := c.call(ctx, "list folders", nethttp.MethodGet, "/folders", nil, &list, true); err != nil {
		return nil, err
	}
	if list.Folders == nil {
		list.Folders = []models.Folder{}
	}
	return list.Folders, nil
}

// CreateFolder creates a folder and returns the server's record of it.
func (c *Client) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	var folder models.Folder
	if err := c.call(ctx, "create folder", nethttp.MethodPost, "/folders",
		models.CreateFolderRequest{Name: name}, &folder, true); err != nil {
		return nil, err
	}
	return &folder, nil
}

// RenameFolder renames a folder.
func (c *Client) RenameFolder(ctx context.Context, folderID, name string) (*models.Folder, error) {
	var folder models.Folder
	if err := c.call(ctx, "rename folder", nethttp.MethodPatch, "/folders/"+url.PathEscape(folderID),
		models.RenameFolderRequest{Name: name}, &folder, true); err != nil {
		return nil, err
	}
	return &folder, nil
}

// UpdateFolderNotes replaces a folder's notes.
func (c *Client) UpdateFolderNotes(ctx context.Context, folderID, notes string) (*models.Folder, error) {
	var folder models.Folder
	if err := c.call(ctx, "update folder notes", nethttp.MethodPut, "/folders/"+url.PathEscape(folderID)+"/notes",
		models.FolderNotesRequest{Notes: notes}, &folder, true); err != nil {
		return nil, err
	}
	return &folder, nil
}

// ListImages fetches one page of a folder's images.
func (c *Client) ListImages(ctx context.Context, folderID string, pageSize int, cursor string) (*models.ImagePage, error) {
	if pageSize <= 0 {
		pageSize = constants.DefaultPageSize
	}
	if pageSize > constants.MaxPageSize {
		pageSize = constants.MaxPageSize
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(pageSize))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	path := "/folders/" + url.PathEscape(folderID) + "/images?" + q.Encode()

	var page models.ImagePage
	if err := c.call(ctx, "list images", nethttp.MethodGet, path, nil, &page, true); err != nil {
		return nil, err
	}
	if page.Images == nil {
		page.Images = []models.Image{}
	}
	if !page.HasMore {
		page.NextKey = ""
	}
	return &page, nil
}

// UploadImages sends one batch of encoded files to a folder.
func (c *Client) UploadImages(ctx context.Context, folderID string, files []models.UploadFile) (*models.UploadResponse, error) {
	var out models.UploadResponse
	if err := c.call(ctx, "upload images", nethttp.MethodPost, "/folders/"+url.PathEscape(folderID)+"/images",
		models.UploadRequest{Files: files}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// MoveImages moves images into targetFolderID.
func (c *Client) MoveImages(ctx context.Context, imageIDs []string, targetFolderID string) error {
	req := models.MoveRequest{ImageIDs: imageIDs, TargetFolderID: targetFolderID}
	var out models.MoveResponse
	if err := c.call(ctx, "move images", nethttp.MethodPost, "/images/move", req, &out, true); err != nil {
		return err
	}
	if out.Moved != 0 && out.Moved != len(imageIDs) {
		c.logger.Warn().
			Int("requested", len(imageIDs)).
			Int("moved", out.Moved).
			Msg("server moved fewer images than requested")
	}
	return nil
}

// ReplaceImage swaps an image's content in place, keeping its id.
func (c *Client) ReplaceImage(ctx context.Context, imageID string, req models.ReplaceImageRequest) (*models.Image, error) {
	var img models.Image
	if err := c.call(ctx, "replace image", nethttp.MethodPut, "/images/"+url.PathEscape(imageID), req, &img, true); err != nil {
		return nil, err
	}
	return &img, nil
}
