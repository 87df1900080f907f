// Package notify watches a filter preference file and dispatches callbacks
// as named filter expressions change.
package notify

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// FilterWatcher watches a YAML preference file mapping filter names to
// serialized expressions. The callback fires once per changed or added
// entry; removed entries dispatch with an empty expression.
type FilterWatcher struct {
	path     string
	callback func(name, expression string)
	watcher  *fsnotify.Watcher
	done     chan struct{}
	last     map[string]string
}

// NewFilterWatcher creates a watcher for the given preference file.
func NewFilterWatcher(path string, callback func(name, expression string)) *FilterWatcher {
	return &FilterWatcher{
		path:     path,
		callback: callback,
		done:     make(chan struct{}),
		last:     make(map[string]string),
	}
}

// Start reads the current file contents, dispatches every entry, then
// watches for changes. Call Stop to clean up.
func (fw *FilterWatcher) Start() error {
	fw.reload()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory, not the file: editors replace files by rename,
	// which drops a watch on the file itself.
	if err := w.Add(filepath.Dir(fw.path)); err != nil {
		_ = w.Close()
		return err
	}
	fw.watcher = w

	go fw.loop()
	log.Printf("notify: watching %s for filter changes", fw.path)
	return nil
}

// Stop shuts down the watcher.
func (fw *FilterWatcher) Stop() {
	if fw.watcher != nil {
		_ = fw.watcher.Close()
	}
	<-fw.done
}

func (fw *FilterWatcher) loop() {
	defer close(fw.done)
	for {
		select {
		case evt, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if evt.Name != fw.path {
				continue
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				fw.reload()
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("notify: watcher error: %v", err)
		}
	}
}

// ReadFilterFile parses a filter preference file: a YAML map from filter
// name to serialized expression. A missing file reads as an empty map.
func ReadFilterFile(path string) (map[string]string, error) {
	out := make(map[string]string)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("notify: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("notify: failed to parse %s: %w", path, err)
	}
	return out, nil
}

// reload parses the preference file and dispatches entries that differ from
// the previous parse. A missing file reads as empty, so every known entry
// dispatches its removal.
func (fw *FilterWatcher) reload() {
	current, err := ReadFilterFile(fw.path)
	if err != nil {
		log.Printf("notify: %v", err)
		return
	}

	for name, expression := range current {
		if fw.last[name] != expression {
			fw.dispatch(name, expression)
		}
	}
	for name := range fw.last {
		if _, ok := current[name]; !ok {
			fw.dispatch(name, "")
		}
	}
	fw.last = current
}

func (fw *FilterWatcher) dispatch(name, expression string) {
	if fw.callback != nil {
		fw.callback(name, expression)
	}
}
