package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/MarianRoshchupkin/GigaMovie/internal/config"
	"github.com/MarianRoshchupkin/GigaMovie/internal/gigachat"
	"github.com/MarianRoshchupkin/GigaMovie/internal/store"
	"github.com/MarianRoshchupkin/GigaMovie/internal/telegram"
)

// App ties the bot, the store and the GigaChat client together and runs
// the polling loop.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	giga    *gigachat.Client
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
}

// New wires the Telegram client, the GigaChat client and the healthz
// listener. The database is opened in Run.
func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	giga := gigachat.New(gigachat.Config{
		AuthorizationKey:   cfg.GigaChat.AuthorizationKey,
		ClientID:           cfg.GigaChat.ClientID,
		OAuthURL:           cfg.GigaChat.OAuthURL,
		CompletionsURL:     cfg.GigaChat.CompletionsURL,
		Scope:              cfg.GigaChat.Scope,
		Model:              cfg.GigaChat.Model,
		Timeout:            cfg.GigaChat.Timeout,
		InsecureSkipVerify: cfg.GigaChat.InsecureSkipVerify,
	}, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, giga: giga, httpSrv: srv}, nil
}

// Run opens the database and processes updates until the context is
// cancelled or a termination signal arrives. Updates are handled one at a
// time, so no handler ever races another.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting gigamovie bot",
		zap.String("db", a.cfg.DB.Path),
		zap.String("http", a.cfg.HTTPAddr),
	)

	repo, err := store.OpenSQLite(ctx, a.cfg.DB.Path)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	a.router = telegram.NewRouter(a.bot, a.log, a.repo, a.giga)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
