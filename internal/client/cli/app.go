// Package cli is the interactive shell of the vault client: a small
// REPL that drives the gateway, the query cache and the PIN gate.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/akgupta-cs/mediavault/internal/client/cache"
	"github.com/akgupta-cs/mediavault/internal/client/config"
	"github.com/akgupta-cs/mediavault/internal/client/gateway"
	"github.com/akgupta-cs/mediavault/internal/client/pinsession"
	"github.com/akgupta-cs/mediavault/internal/client/prefs"
	"github.com/akgupta-cs/mediavault/internal/client/services"
	"github.com/akgupta-cs/mediavault/internal/client/syncstatus"
	"github.com/akgupta-cs/mediavault/internal/i18n"
	"github.com/akgupta-cs/mediavault/internal/logging"
)

type App struct {
	cfg     *config.Config
	gw      gateway.Gateway
	svc     *services.VaultService
	cache   *cache.Cache
	poller  *cache.Poller
	session *pinsession.Session
	tracker *syncstatus.Tracker
	prefs   *prefs.Store
	log     logging.Logger

	scanner *bufio.Scanner
	out     io.Writer
}

// New wires the whole client together. The sqlite settings store must
// already be initialized.
func New(cfg *config.Config, kv *prefs.SqliteKV, out io.Writer, log logging.Logger) *App {
	a := &App{
		cfg:     cfg,
		log:     log,
		out:     out,
		scanner: newScanner(),
	}

	gw := gateway.NewHTTPClient(cfg.ServerURL, log)
	a.gw = gw
	a.cache = cache.New(log)
	a.poller = cache.NewPoller(log)
	a.prefs = prefs.NewStore(kv, gw.Principal, log)
	a.session = pinsession.New(gw, log)
	a.tracker = syncstatus.NewTracker(log)
	a.svc = services.NewVaultService(gw, a.cache, a.poller, a, a.language, log)

	a.cache.Subscribe(a.tracker.HandleEvent)

	return a
}

// Notify implements services.Notifier by printing to the console.
func (a *App) Notify(message string) {
	fmt.Fprintln(a.out, message)
}

func (a *App) language() i18n.Language {
	return a.prefs.Language(context.Background())
}

// ensureLanguage forces a first explicit language choice. Nothing else
// renders until one is made.
func (a *App) ensureLanguage(ctx context.Context) error {
	if a.prefs.HasSelected(ctx) {
		return nil
	}
	for {
		line, err := a.prompt("language (english/hindi)")
		if err != nil {
			return err
		}
		lang := i18n.ParseLanguage(line)
		if string(lang) != line {
			fmt.Fprintf(a.out, "unsupported language %q\n", line)
			continue
		}
		return a.prefs.SetLanguage(ctx, lang)
	}
}

// Run starts the background loops and enters the command loop until
// ctx is cancelled or the user exits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.ensureLanguage(ctx); err != nil {
		return err
	}

	a.tracker.OnReconnect(func() {
		a.log.Debug(ctx, "connection restored, refreshing")
		a.poller.RefreshAll(ctx)
	})
	go a.tracker.Watch(ctx, a.cfg.OnlineCheckInterval.Duration, a.gw.Ping)

	a.poller.Start(ctx)
	defer a.poller.Stop()

	fmt.Fprintln(a.out, "mediavault client. Type 'help' for commands.")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := a.prompt(">")
		if err != nil {
			return nil
		}
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		if cmd == "exit" || cmd == "quit" {
			return nil
		}
		a.dispatch(ctx, cmd, args)
	}
}

func (a *App) dispatch(ctx context.Context, cmd string, args []string) {
	var err error
	switch cmd {
	case "help":
		a.printHelp()
	case "register":
		err = a.cmdRegister(ctx)
	case "login":
		err = a.cmdLogin(ctx)
	case "logout":
		err = a.cmdLogout(ctx)
	case "unlock":
		err = a.cmdUnlock(ctx)
	case "lock":
		a.session.Lock()
	case "pin":
		err = a.cmdPin(ctx, args)
	case "profile":
		err = a.cmdProfile(ctx)
	case "photos":
		err = a.cmdList(ctx, gateway.KindPhoto)
	case "videos":
		err = a.cmdList(ctx, gateway.KindVideo)
	case "documents":
		err = a.cmdList(ctx, gateway.KindDocument)
	case "memories":
		err = a.cmdList(ctx, gateway.KindMemory)
	case "upload":
		err = a.cmdUpload(ctx, args)
	case "delete":
		err = a.cmdDelete(ctx, args)
	case "storage":
		err = a.cmdStorage(ctx)
	case "status":
		fmt.Fprintln(a.out, a.tracker.Describe(a.language()))
	case "language":
		err = a.cmdLanguage(ctx, args)
	case "admin":
		err = a.cmdAdmin(ctx, args)
	default:
		fmt.Fprintf(a.out, "unknown command %q, try 'help'\n", cmd)
	}

	if err != nil {
		fmt.Fprintln(a.out, "error:", err)
	}
}

func (a *App) printHelp() {
	fmt.Fprint(a.out, `commands:
  register            create an account
  login / logout      open or close the session
  unlock / lock       enter or clear the vault PIN
  pin change|reset    manage the vault PIN
  profile             show the profile
  photos, videos      list media
  documents, memories list media (coming soon)
  upload <kind> <path>
  delete <kind> <id>
  storage             show storage usage
  status              show sync status
  language [english|hindi]
  admin users|units|summary [principal]
  exit
`)
}
