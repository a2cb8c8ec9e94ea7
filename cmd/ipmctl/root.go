package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/ip-manager/internal/activity"
	"github.com/iliyamo/ip-manager/internal/config"
	"github.com/iliyamo/ip-manager/internal/database"
	"github.com/iliyamo/ip-manager/internal/repository"
	"github.com/iliyamo/ip-manager/internal/session"
)

var (
	// sessionFile overrides SESSION_FILE.
	sessionFile string
	verbose     bool

	rootCmd = &cobra.Command{
		Use:   "ipmctl",
		Short: "Terminal client for the IP Manager back office",
		Long: `ipmctl signs in to the IP Manager back office from a terminal.

The session is stored in a local file and expires one hour after login.

Examples:
  ipmctl login -u admin       Sign in with username and password
  ipmctl pin                  Sign in with a PIN
  ipmctl whoami               Show the signed-in user
  ipmctl notifications        List expiring subscriptions and low stock`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&sessionFile, "session-file", "", "session slot path (default $SESSION_FILE or .ipmanager/session.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(pinCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(passwdCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(notificationsCmd)
}

// app holds what a command needs once the database is open.
type app struct {
	db       *sqlx.DB
	log      *zap.Logger
	recorder *activity.Recorder
	sessions *session.Manager
}

func (a *app) Close() {
	a.sessions.Wait()
	a.recorder.Wait()
	_ = a.db.Close()
	_ = a.log.Sync()
}

func openApp(ctx context.Context) (*app, error) {
	_ = godotenv.Load()
	cfg := config.LoadCLI()
	if sessionFile != "" {
		cfg.SessionFile = sessionFile
	}

	log := zap.NewNop()
	if verbose {
		l, err := config.NewLogger(config.LoggerConfig{Level: "debug", Encoding: "console"})
		if err != nil {
			return nil, err
		}
		log = l
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	users := repository.NewUserRepo(db)
	rec := activity.NewRecorder(repository.NewActivityRepo(db), log, nil)
	mgr := session.NewManager(users, session.NewFileStore(cfg.SessionFile), log, session.WithRecorder(rec))
	return &app{db: db, log: log, recorder: rec, sessions: mgr}, nil
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// requireSession restores the file session or fails with a hint to log in.
func requireSession(ctx context.Context, a *app) (*session.Session, error) {
	s, err := a.sessions.RestoreSession(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: run 'ipmctl login' first", session.ErrNotAuthenticated)
	}
	return s, nil
}
