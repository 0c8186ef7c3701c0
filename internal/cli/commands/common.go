package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/adminkit-dev/adminkit/internal/cli/api"
	"github.com/adminkit-dev/adminkit/internal/cli/auth"
	"github.com/adminkit-dev/adminkit/internal/cli/client"
	"github.com/adminkit-dev/adminkit/internal/cli/config"
	"github.com/adminkit-dev/adminkit/internal/cli/interceptor"
	"github.com/adminkit-dev/adminkit/internal/cli/router"
	"github.com/adminkit-dev/adminkit/internal/cli/serverselect"
	"github.com/adminkit-dev/adminkit/internal/cli/session"
	"github.com/adminkit-dev/adminkit/internal/logger"
)

// expiryNoticeWindow keeps a burst of rejected requests to one notice
const expiryNoticeWindow = 2 * time.Second

// serverAlias is the value of the global --server flag
var serverAlias string

// BindGlobalFlags registers the flags every command understands
func BindGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVarP(&serverAlias, "server", "s", "", "Server alias or URL from adminkit.json")
}

type cmdOptions struct {
	server *config.Server
	tokens auth.TokenStore
	out    io.Writer
	errOut io.Writer
}

// Option overrides a dependency of a command, mostly for tests
type Option func(*cmdOptions)

// WithServer skips server resolution
func WithServer(server *config.Server) Option {
	return func(o *cmdOptions) { o.server = server }
}

// WithTokenStore replaces the keyring
func WithTokenStore(tokens auth.TokenStore) Option {
	return func(o *cmdOptions) { o.tokens = tokens }
}

// WithOutput redirects command output and notices
func WithOutput(out, errOut io.Writer) Option {
	return func(o *cmdOptions) {
		o.out = out
		o.errOut = errOut
	}
}

func resolveOptions(opts []Option) (*cmdOptions, error) {
	o := &cmdOptions{out: os.Stdout, errOut: os.Stderr}
	for _, opt := range opts {
		opt(o)
	}

	if o.server == nil {
		server, err := getSelectedServer()
		if err != nil {
			return nil, err
		}
		o.server = server
	}

	if o.tokens == nil {
		o.tokens = auth.NewKeyringStore(o.server.URL)
	}

	return o, nil
}

// getSelectedServer loads the config and returns the selected server.
// This is common logic used by most commands.
func getSelectedServer() (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'adminkit init' to create a configuration file", err)
	}

	// Resolve which server to use
	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, err
	}

	if server.URL == "" {
		return nil, fmt.Errorf("server URL is empty. Please edit %s and add a valid URL", config.ConfigFileName)
	}

	return server, nil
}

// sessionEnv is everything a session command talks to
type sessionEnv struct {
	*cmdOptions
	table *router.Table
	store *session.Store
}

// newSessionEnv wires client, expiry interceptor, route table and session
// store for the resolved server.
func newSessionEnv(opts []Option) (*sessionEnv, error) {
	o, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	log := logger.GetLogger()

	clientOpts := []client.Option{client.WithLogger(log)}
	if o.server.Insecure {
		clientOpts = append(clientOpts, client.WithInsecureSkipVerify())
	}
	apiClient := client.New(o.server.URL, clientOpts...)

	notify := interceptor.NotifyPolicy{Notifier: interceptor.WriterNotifier{W: o.errOut}}
	apiClient.Use(interceptor.NewCodeInterceptor(interceptor.Debounce(notify, expiryNoticeWindow), log))

	table := router.New(router.ConstantRoutes())
	store := session.NewStore(api.NewUserService(apiClient), o.tokens, table, log)

	return &sessionEnv{cmdOptions: o, table: table, store: store}, nil
}

// requireToken fails early when there is no stored token
func (e *sessionEnv) requireToken() error {
	if e.store.State().Token == "" {
		return auth.ErrNotAuthenticated
	}
	return nil
}
