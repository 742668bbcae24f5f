package server

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/theoremus-urban-solutions/idfm-stop-monitoring/referential"
)

// WatchReferential reloads the catalog when the referential file changes, so
// long-lived servers pick up catalog updates without a restart. URL sources
// are not watched.
func (s *Server) WatchReferential(ctx context.Context) error {
	source := s.cfg.Referential.Source
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		s.log.Debug("referential source is a URL, not watching")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	go func() {
		defer func() { _ = watcher.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case evt := <-watcher.Events:
				if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if filepath.Base(evt.Name) != filepath.Base(source) {
					continue
				}
				catalog, err := referential.Load(source)
				if err != nil {
					s.log.Error("referential reload failed", "error", err)
					continue
				}
				s.catalog.Store(catalog)
				s.log.Info("referential reloaded", "stops", catalog.Len())
			case err := <-watcher.Errors:
				s.log.Error("referential watcher error", "error", err)
			}
		}
	}()

	// Watch the directory: editors and atomic writes replace the file.
	return watcher.Add(filepath.Dir(source))
}
