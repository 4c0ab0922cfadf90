// Package ctl implements the authctl admin CLI. It drives the server's HTTP
// API: registering accounts and walking the password-reset flow on behalf of
// an operator.
package ctl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type App struct {
	baseURL string
	client  *http.Client
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(baseURL string, in io.Reader, out io.Writer) *App {
	return &App{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

// postForm submits a form to path and decodes the JSON answer. Non-2xx
// statuses are surfaced as errors carrying the server's message.
func (a *App) postForm(ctx context.Context, method, path string, form url.Values) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body := map[string]string{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && err != io.EOF {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := body["error"]
		if msg == "" {
			msg = body["message"]
		}
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("server answered %d: %s", resp.StatusCode, msg)
	}

	return body, nil
}

// Register prompts for an email and password and creates the account.
func (a *App) Register(ctx context.Context) error {

	email, err := GetSimpleText(a.reader, "Enter user name (email)", a.out)
	if err != nil {
		return err
	}

	password, err := GetPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	_, err = a.postForm(ctx, http.MethodPost, "/users", url.Values{
		"email":    {email},
		"password": {string(password)},
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Success!")
	return nil
}

// Reset prompts for an email, obtains a reset token from the server, then
// prompts for the replacement password and consumes the token.
func (a *App) Reset(ctx context.Context) error {

	email, err := GetSimpleText(a.reader, "Enter user name (email)", a.out)
	if err != nil {
		return err
	}

	body, err := a.postForm(ctx, http.MethodPost, "/reset_password", url.Values{
		"email": {email},
	})
	if err != nil {
		return err
	}

	token := body["reset_token"]
	if token == "" {
		return fmt.Errorf("no reset token in server response")
	}

	password, err := GetPassword("Enter new password", a.out)
	if err != nil {
		return err
	}

	_, err = a.postForm(ctx, http.MethodPut, "/reset_password", url.Values{
		"email":        {email},
		"reset_token":  {token},
		"new_password": {string(password)},
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Password updated")
	return nil
}
