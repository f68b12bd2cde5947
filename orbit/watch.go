package orbit

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/signalsfoundry/sdr-catalog/internal/logging"
)

// Watcher observes a TLE directory and hands every newly written orbit file
// to a callback, so TLE sets dropped in by downloads show up without a
// restart.
type Watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

// Watch starts watching dir. The callback runs on the watcher goroutine.
func Watch(dir string, log logging.Logger, onOrbit func(Orbit)) (*Watcher, error) {
	if log == nil {
		log = logging.Noop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{fw: fw, done: make(chan struct{})}
	go w.run(log, onOrbit)
	return w, nil
}

func (w *Watcher) run(log logging.Logger, onOrbit func(Orbit)) {
	defer close(w.done)
	ctx := context.Background()

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".tle") {
				continue
			}
			o, err := LoadFile(ev.Name)
			if err != nil {
				log.Debug(ctx, "ignoring unparsable TLE file",
					logging.String("path", ev.Name),
					logging.Any("error", err))
				continue
			}
			log.Info(ctx, "TLE file picked up",
				logging.String("path", ev.Name),
				logging.String("satellite", o.Name()))
			onOrbit(o)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Warn(ctx, "TLE watcher error", logging.Any("error", err))
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.fw.Close()
	<-w.done
	return err
}
