package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// UploadScope is the only permission the consent flow asks for.
const UploadScope = youtube.YoutubeUploadScope

// Flow runs the installed-app authorization code flow against a local
// callback listener.
type Flow struct {
	config  *oauth2.Config
	port    int
	timeout time.Duration
	state   string

	// OpenURL is called with the consent URL. It defaults to launching the
	// system browser.
	OpenURL func(url string) error
}

func NewFlow(cfg *oauth2.Config, port int, timeout time.Duration) *Flow {
	return &Flow{
		config:  cfg,
		port:    port,
		timeout: timeout,
		state:   uuid.NewString(),
		OpenURL: browser.OpenURL,
	}
}

// NewFlowFromSecretsFile reads a client secrets file as downloaded from the
// Google Cloud console.
func NewFlowFromSecretsFile(path string, port int, timeout time.Duration) (*Flow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, UploadScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse client secrets file: %w", err)
	}

	return NewFlow(cfg, port, timeout), nil
}

// Run blocks until the user completes consent in the browser, the timeout
// expires or ctx is cancelled.
func (f *Flow) Run(ctx context.Context) (*Bundle, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", f.port))
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	f.config.RedirectURL = fmt.Sprintf("http://localhost:%d/", port)

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server := &http.Server{
		Handler:           f.callbackHandler(codeChan, errChan),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	authURL := f.AuthURL()
	slog.Debug("Consent URL", "url", authURL)
	if f.OpenURL != nil {
		if err := f.OpenURL(authURL); err != nil {
			slog.Warn("Could not open browser", "error", err)
		}
	}

	select {
	case code := <-codeChan:
		token, err := f.config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange code: %w", err)
		}
		return NewBundle(f.config, token), nil

	case err := <-errChan:
		return nil, err

	case <-ctx.Done():
		return nil, ctx.Err()

	case <-time.After(f.timeout):
		return nil, errors.New("authentication timed out")
	}
}

// AuthURL requests offline access and forces the consent screen so a
// refresh token is issued even if the user granted access before.
func (f *Flow) AuthURL() string {
	return f.config.AuthCodeURL(f.state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (f *Flow) callbackHandler(codeChan chan<- string, errChan chan<- error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		query := r.URL.Query()
		// Requests without our state, such as a prefetch or a reload, are
		// ignored and the flow keeps waiting for the real redirect.
		if query.Get("state") != f.state {
			slog.Warn("Ignoring callback with unexpected state", "remote", r.RemoteAddr)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = fmt.Fprintf(w, "<html><body><h1>Error</h1><p>Invalid state parameter.</p></body></html>")
			return
		}

		if denied := query.Get("error"); denied != "" {
			sendErr(errChan, fmt.Errorf("authorization denied: %s", denied))
			_, _ = fmt.Fprintf(w, "<html><body><h1>Error</h1><p>Authorization was denied.</p></body></html>")
			return
		}

		code := query.Get("code")
		if code == "" {
			sendErr(errChan, errors.New("no code in callback"))
			_, _ = fmt.Fprintf(w, "<html><body><h1>Error</h1><p>No authorization code received.</p></body></html>")
			return
		}

		select {
		case codeChan <- code:
		default:
		}
		_, _ = fmt.Fprintf(w, "<html><body><h1>Success!</h1><p>You can close this window and return to the terminal.</p></body></html>")
	})
}

func sendErr(errChan chan<- error, err error) {
	select {
	case errChan <- err:
	default:
	}
}
