package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rushteam/contentkit/catalog"
)

// DefaultWatchDebounce 是 WatchCatalog 合并连续写事件的窗口。
const DefaultWatchDebounce = 200 * time.Millisecond

// WatchCatalog 监听 path 指向的物品表，文件写入或被替换后按 debounce 合并事件再整体 Rebuild。
// 监听的是所在目录，编辑器“写临时文件再 rename”的保存方式同样能触发。
// 阻塞直到 ctx 取消并返回 ctx.Err()；加载或重建失败只记录日志，旧快照继续服务。
func (r *Recommender) WatchCatalog(ctx context.Context, path string, debounce time.Duration) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve catalog path: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	r.logger.Info("watching catalog", slog.String("path", abs))

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("catalog watcher error", slog.String("error", err.Error()))
		case <-timer.C:
			r.reload(ctx, abs)
		}
	}
}

func (r *Recommender) reload(ctx context.Context, path string) {
	cat, err := catalog.LoadFile(path)
	if err != nil {
		r.logger.Error("reload catalog failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	// Rebuild 自己记录失败日志与指标
	_ = r.Rebuild(ctx, cat)
}
