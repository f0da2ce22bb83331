package locale

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

var openFile = os.Open

// Watch reloads *.yaml files in dir whenever they are written or created,
// until ctx is done. Files that fail to parse keep the previous catalog.
func (b *Bundle) Watch(ctx context.Context, dir string, log zerolog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != ".yaml" || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := b.LoadFile(ev.Name); err != nil {
				log.Warn().Err(err).Str("file", ev.Name).Msg("locale reload failed")
				continue
			}
			log.Info().Str("file", ev.Name).Msg("locale reloaded")
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("locale watcher")
		}
	}
}
