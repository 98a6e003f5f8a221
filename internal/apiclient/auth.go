package apiclient

import (
	"context"
	"net/http"

	"zonebourse-go/internal/model"
)

type resultEnvelope struct {
	Success *bool              `json:"success"`
	Message string             `json:"message"`
	Error   string             `json:"error"`
	User    *model.UserProfile `json:"user"`
}

func (e resultEnvelope) result() model.Result {
	r := model.Result{Message: e.Message, User: e.User}
	if e.Success != nil {
		r.Success = *e.Success
	}
	return r
}

// Login posts the credentials and returns the backend session cookies on
// success.
func (c *Client) Login(ctx context.Context, in model.LoginRequest) (model.Result, Auth, error) {
	resp, cancel, err := c.sendJSON(ctx, http.MethodPost, "/api/login", nil, in)
	if err != nil {
		return model.Result{}, nil, err
	}
	defer cancel()
	defer resp.Body.Close()

	env, err := decodeResult(resp)
	if err != nil {
		return env.result(), nil, err
	}
	return env.result(), Auth(resp.Cookies()), nil
}

func (c *Client) Register(ctx context.Context, in model.RegisterRequest) (model.Result, error) {
	resp, cancel, err := c.sendJSON(ctx, http.MethodPost, "/api/register", nil, in)
	if err != nil {
		return model.Result{}, err
	}
	defer cancel()
	defer resp.Body.Close()

	env, err := decodeResult(resp)
	return env.result(), err
}

// Logout is a GET on the backend but is never retried.
func (c *Client) Logout(ctx context.Context, auth Auth) (model.Result, error) {
	resp, cancel, err := c.do(ctx, request{method: http.MethodGet, path: "/api/logout", auth: auth})
	if err != nil {
		return model.Result{}, err
	}
	defer cancel()
	defer resp.Body.Close()

	env, err := decodeResult(resp)
	return env.result(), err
}
