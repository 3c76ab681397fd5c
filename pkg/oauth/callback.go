package oauth

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// callbackResult is what the loopback listener or the manual-paste fallback
// produces: an authorization code and the state value it arrived with.
type callbackResult struct {
	Code  string
	State string
}

// awaitCallback races a loopback HTTP listener against a manual-paste
// fallback read from f.In, returning whichever resolves first: it polls up
// to 60s for the callback, falling back to a manually pasted code. The
// manual-paste input may be a raw code, "code#state", or the full redirect
// URL.
func (f *Flows) awaitCallback(ctx context.Context, addr, path string, timeout time.Duration) (*callbackResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resultCh := make(chan *callbackResult, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errMsg := q.Get("error"); errMsg != "" {
			fmt.Fprintf(w, "Login failed: %s. You may close this tab.", errMsg)
			select {
			case errCh <- fmt.Errorf("authorization server returned error: %s", errMsg):
			default:
			}
			return
		}
		fmt.Fprint(w, "Login complete. You may close this tab and return to the terminal.")
		select {
		case resultCh <- &callbackResult{Code: q.Get("code"), State: q.Get("state")}:
		default:
		}
	})

	server := &http.Server{Addr: addr, Handler: mux}
	listenErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErrCh <- err
		}
	}()
	defer server.Close()

	go func() {
		line, err := f.readManualPaste(ctx)
		if err != nil {
			return
		}
		if parsed, err := parseManualPaste(line); err == nil {
			select {
			case resultCh <- parsed:
			default:
			}
		}
	}()

	select {
	case res := <-resultCh:
		return res, nil
	case err := <-errCh:
		return nil, err
	case err := <-listenErrCh:
		return nil, fmt.Errorf("callback listener: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("timed out waiting for login callback: %w", ctx.Err())
	}
}

// readManualPaste blocks on one line from f.In, respecting ctx cancellation
// by returning early if the context finishes first (the read itself cannot
// be interrupted).
func (f *Flows) readManualPaste(ctx context.Context) (string, error) {
	lineCh := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(f.in())
		if scanner.Scan() {
			lineCh <- scanner.Text()
		}
	}()
	select {
	case line := <-lineCh:
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// parseManualPaste accepts a raw code, "code#state", or a full redirect URL.
func parseManualPaste(input string) (*callbackResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}

	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		u, err := url.Parse(input)
		if err != nil {
			return nil, err
		}
		return &callbackResult{Code: u.Query().Get("code"), State: u.Query().Get("state")}, nil
	}

	if idx := strings.Index(input, "#"); idx >= 0 {
		return &callbackResult{Code: input[:idx], State: input[idx+1:]}, nil
	}

	return &callbackResult{Code: input}, nil
}

func verifyState(got, want string) error {
	if got != want {
		log.Warn().Msg("oauth callback: state mismatch, rejecting")
		return fmt.Errorf("state mismatch: possible CSRF")
	}
	return nil
}
