package main

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run a configuration whenever its file changes",
	RunE:  runWatch,
}

func init() {
	addRunFlags(watchCmd)
	watchCmd.Flags().Duration("settle", 200*time.Millisecond, "Quiet period after a change before re-running")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ro, err := parseRunOptions(cmd)
	if err != nil {
		return err
	}
	settle, _ := cmd.Flags().GetDuration("settle")
	log := newLogger(cmd)
	ctx := cmd.Context()

	path, err := filepath.Abs(ro.configPath)
	if err != nil {
		return err
	}
	ro.configPath = path

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	// Editors often replace the file, so watch the directory.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return err
	}

	rerun := func() {
		if err := runConfig(ctx, ro, log); err != nil {
			log.Error("run failed", "error", err)
		}
	}
	rerun()
	log.Info("watching", "path", path)

	timer := time.NewTimer(settle)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			log.Debug("change", "op", ev.Op.String())
			timer.Reset(settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", "error", err)
		case <-timer.C:
			rerun()
		}
	}
}
