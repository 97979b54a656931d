package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"shoppinglist/internal/logging"
	"shoppinglist/internal/persist"
	"shoppinglist/internal/shoppinglist"
	"shoppinglist/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	backend   string
	dataDir   string
	namespace string
	purge     bool
}

func newRootCmd() *cobra.Command {
	defaults := persist.NewConfigFromEnv()
	opts := options{}

	root := &cobra.Command{
		Use:   "shoppinglist",
		Short: "Keep a shopping list in the terminal",
		Long: `Shows the shopping list, adds, edits and deletes items and marks them
as purchased. The list is saved after every change and restored on the next
start.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts.apply(defaults))
		},
	}

	flags := root.Flags()
	flags.StringVar(&opts.backend, "backend", defaults.Backend, "storage backend: memory, file, sqlite or postgres")
	flags.StringVar(&opts.dataDir, "data-dir", defaults.DataDir, "directory for the file and sqlite backends")
	flags.StringVar(&opts.namespace, "namespace", defaults.Namespace, "name of the stored record")
	flags.BoolVar(&opts.purge, "purge", false, "delete the stored list before starting")

	return root
}

// apply overlays the flags on the environment config
func (o options) apply(base *persist.Config) sessionConfig {
	cfg := *base
	cfg.Backend = o.backend
	cfg.Namespace = o.namespace
	if o.dataDir != base.DataDir {
		cfg.DataDir = o.dataDir
		cfg.SQLitePath = filepath.Join(o.dataDir, "shoppinglist.db")
	}
	return sessionConfig{persist: &cfg, purge: o.purge}
}

type sessionConfig struct {
	persist *persist.Config
	purge   bool
}

// session owns the storage backend, the bridge and the store for one run
type session struct {
	kv     persist.KVStore
	bridge *persist.Bridge
	store  *shoppinglist.Store
}

func openSession(ctx context.Context, cfg sessionConfig) (*session, error) {
	kv, err := persist.Open(cfg.persist)
	if err != nil {
		return nil, err
	}

	bridge := persist.NewBridge(kv, cfg.persist.BridgeOptions()...)
	if cfg.purge {
		if err := bridge.Purge(ctx); err != nil {
			return nil, errors.Join(fmt.Errorf("purge stored list: %w", err), bridge.Close(), kv.Close())
		}
		logging.Logger.WithField("key", bridge.Key()).Info("Stored list purged")
	}

	store := shoppinglist.NewStore(bridge.Hydrate(ctx), shoppinglist.WithPersister(bridge))
	return &session{kv: kv, bridge: bridge, store: store}, nil
}

// close writes the last snapshot before releasing the backend
func (s *session) close() error {
	return errors.Join(s.bridge.Close(), s.kv.Close())
}

func run(ctx context.Context, cfg sessionConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// The terminal belongs to the UI, so logs only go to the file
	logConfig := logging.NewConfigFromEnv()
	logConfig.Console = false
	logging.InitLogger(logConfig)
	defer logging.Close()

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	logging.Logger.WithFields(logrus.Fields{
		"backend": cfg.persist.Backend,
		"key":     sess.bridge.Key(),
		"items":   len(sess.store.Items()),
	}).Info("Shopping list opened")

	model := ui.NewModel(sess.store)
	defer model.Close()

	_, runErr := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return errors.Join(runErr, sess.close())
}
