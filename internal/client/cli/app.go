package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/authcore/internal/client/client"
	"github.com/dmitrijs2005/authcore/internal/client/config"
	"github.com/dmitrijs2005/authcore/internal/client/services"
)

type App struct {
	config      *config.Config
	authService services.AuthService
	reader      *bufio.Reader
	out         io.Writer
	closers     []func() error
}

// NewApp opens the session cache and prepares the API clients. Nothing
// is dialled until a command needs it.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.OpenSessionDB(ctx, c.SessionPath)
	if err != nil {
		return nil, err
	}

	grpcClient, err := client.NewGRPCClient(c.GRPCAddr, c.InternalAPIToken)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerURL, c.InternalAPIToken, c.RequestTimeout)
	a := newApp(c, services.NewAuthService(api, grpcClient, db), os.Stdin, os.Stdout)
	a.closers = append(a.closers, grpcClient.Close, db.Close)
	return a, nil
}

func newApp(c *config.Config, as services.AuthService, in io.Reader, out io.Writer) *App {
	return &App{config: c, authService: as, reader: bufio.NewReader(in), out: out}
}

// Run executes args as a single command, or starts the REPL when args is
// empty.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "authctl (type 'help' for commands)")
		runREPL(ctx, a, a.getStatus, a.reader, a.out)
		return nil
	}
	return a.exec(ctx, args[0])
}

func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (a *App) getStatus() string {
	s, err := a.authService.Current(context.Background())
	if err != nil {
		return ""
	}
	return fmt.Sprintf("(%s)", s.Email)
}

func (a *App) isLoggedIn() bool {
	_, err := a.authService.Current(context.Background())
	return err == nil
}

// withTimeout bounds one server round trip. Prompts run outside it.
func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config == nil || a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}

var errUnknownCommand = errors.New("unknown command")

func (a *App) exec(ctx context.Context, cmd string) error {
	switch cmd {
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "refresh":
		return a.Refresh(ctx)
	case "verify":
		return a.Verify(ctx)
	case "status":
		return a.Status(ctx)
	case "logout":
		return a.Logout(ctx)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, cmd)
	}
}
