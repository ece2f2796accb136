package bootstrap

import (
	"log/slog"
	"strings"

	"github.com/kirillkom/document-router/internal/config"
	"github.com/kirillkom/document-router/internal/infrastructure/classifier/keyword"
	"github.com/kirillkom/document-router/internal/infrastructure/rulesfile"
)

// ReloadObserver is told the outcome of every rules reload. It may be nil.
type ReloadObserver func(rules string, err error)

// RuleWatchers returns one watcher per rules file configured on disk. Embedded defaults
// are never watched.
func RuleWatchers(cfg config.Config, cls *Classification, observe ReloadObserver, logger *slog.Logger) []*rulesfile.Watcher {
	observed := func(name string, reload func(string) error) func(string) error {
		return func(path string) error {
			err := reload(path)
			if observe != nil {
				observe(name, err)
			}
			return err
		}
	}

	var watchers []*rulesfile.Watcher
	if path := strings.TrimSpace(cfg.ClassifierRulesPath); path != "" {
		watchers = append(watchers, &rulesfile.Watcher{
			Path: path,
			Name: "classifier",
			Reload: observed("classifier", func(p string) error {
				r, err := keyword.LoadRules(p)
				if err != nil {
					return err
				}
				cls.Keyword.SetRules(r)
				return nil
			}),
			Logger: logger,
		})
	}
	if path := strings.TrimSpace(cfg.RoutingRulesPath); path != "" {
		watchers = append(watchers, &rulesfile.Watcher{
			Path:   path,
			Name:   "routing",
			Reload: observed("routing", cls.Routing.Reload),
			Logger: logger,
		})
	}
	return watchers
}
