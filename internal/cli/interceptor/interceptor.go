// Package interceptor classifies API responses by their envelope code and
// decides what happens when the server reports an expired session.
package interceptor

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/adminkit-dev/adminkit/internal/cli/client"
)

// ExpiredMessage is shown to the user when the session has expired
const ExpiredMessage = "登录已过期,请重新登录"

// codePath is where the status code lives in every response body
const codePath = "code"

// DefaultExpiryCodes are the envelope codes that mean the session is gone
var DefaultExpiryCodes = []string{"00006", "10009"}

// ExpiryPolicy decides what happens when a session-expired code is seen
type ExpiryPolicy interface {
	OnSessionExpired(code string)
}

// PolicyFunc adapts a function to ExpiryPolicy
type PolicyFunc func(code string)

func (f PolicyFunc) OnSessionExpired(code string) { f(code) }

// Notifier is a user-visible notification sink
type Notifier interface {
	Notify(message string)
}

// WriterNotifier prints notifications, one per line
type WriterNotifier struct {
	W io.Writer
}

func (n WriterNotifier) Notify(message string) {
	fmt.Fprintln(n.W, message)
}

// NotifyPolicy shows ExpiredMessage through a Notifier
type NotifyPolicy struct {
	Notifier Notifier
}

func (p NotifyPolicy) OnSessionExpired(string) {
	p.Notifier.Notify(ExpiredMessage)
}

// Debounce wraps policy so that it fires at most once per window
func Debounce(policy ExpiryPolicy, window time.Duration) ExpiryPolicy {
	return &debounced{policy: policy, window: window, now: time.Now}
}

type debounced struct {
	policy ExpiryPolicy
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last time.Time
}

func (d *debounced) OnSessionExpired(code string) {
	d.mu.Lock()
	now := d.now()
	if !d.last.IsZero() && now.Sub(d.last) < d.window {
		d.mu.Unlock()
		return
	}
	d.last = now
	d.mu.Unlock()

	d.policy.OnSessionExpired(code)
}

// CodeInterceptor runs the expiry policy for responses carrying an expiry code
type CodeInterceptor struct {
	codes  map[string]struct{}
	policy ExpiryPolicy
	logger zerolog.Logger
}

var _ client.ResponseInterceptor = (*CodeInterceptor)(nil)

// NewCodeInterceptor creates an interceptor for codes; DefaultExpiryCodes is
// used when none are given.
func NewCodeInterceptor(policy ExpiryPolicy, logger zerolog.Logger, codes ...string) *CodeInterceptor {
	if len(codes) == 0 {
		codes = DefaultExpiryCodes
	}
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return &CodeInterceptor{codes: set, policy: policy, logger: logger}
}

// Handle never fails: extraction problems and policy panics are logged and
// the response continues to its caller.
func (i *CodeInterceptor) Handle(resp *client.Response) {
	if resp == nil {
		i.logger.Debug().Err(errNoResponse).Msg("Could not read response code")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			i.logger.Error().Interface("panic", r).Str("path", resp.Path).Msg("Expiry policy panicked")
		}
	}()

	code, err := extractCode(resp)
	if err != nil {
		i.logger.Debug().Err(err).Str("path", resp.Path).Int("status", resp.StatusCode).Msg("Could not read response code")
		return
	}

	if _, expired := i.codes[code]; !expired {
		return
	}

	i.logger.Info().Str("code", code).Str("path", resp.Path).Msg("Session expired")
	if i.policy != nil {
		i.policy.OnSessionExpired(code)
	}
}

type extractError struct {
	reason string
}

func (e *extractError) Error() string { return e.reason }

var (
	errNoResponse    = &extractError{"no response"}
	errMalformedJSON = &extractError{"response body is not valid JSON"}
	errMissingCode   = &extractError{"response body has no code"}
)

func extractCode(resp *client.Response) (string, error) {
	if len(resp.Body) == 0 {
		return "", errNoResponse
	}
	if !gjson.ValidBytes(resp.Body) {
		return "", errMalformedJSON
	}
	code := gjson.GetBytes(resp.Body, codePath)
	if !code.Exists() {
		return "", errMissingCode
	}
	return code.String(), nil
}
