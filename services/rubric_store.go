package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/Gwen-Z/personal-website-ai-sub002/config"
	"github.com/Gwen-Z/personal-website-ai-sub002/models"
)

// RubricStore 管理评分规则配置
//
// 规则以JSON文件形式持久化。文件缺失或损坏时降级为内置默认规则，
// 评分路径上永远拿得到一份可用的规则，不会因配置问题阻塞批处理。
type RubricStore struct {
	path string

	mu      sync.RWMutex
	current models.Rubric

	watcher *fsnotify.Watcher
}

// NewRubricStore 创建并立即加载评分规则
func NewRubricStore(path string) *RubricStore {
	s := &RubricStore{
		path:    path,
		current: models.DefaultRubric(),
	}
	s.reload()
	return s
}

// Current 返回当前生效的评分规则
func (s *RubricStore) Current() models.Rubric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// reload 从文件重新加载规则，任何读取/解析失败都回退到内置默认规则
func (s *RubricStore) reload() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		config.Logger.Warnw("评分规则文件不可读，使用内置默认规则", "path", s.path, "error", err)
		s.set(models.DefaultRubric())
		return
	}

	var rubric models.Rubric
	if err := json.Unmarshal(data, &rubric); err != nil {
		config.Logger.Warnw("评分规则文件解析失败，使用内置默认规则", "path", s.path, "error", err)
		s.set(models.DefaultRubric())
		return
	}

	s.set(rubric)
}

func (s *RubricStore) set(rubric models.Rubric) {
	s.mu.Lock()
	s.current = rubric
	s.mu.Unlock()
}

// Replace 整体替换评分规则：原样写回文件并立即生效
//
// 只校验载荷是非空JSON对象，不校验关键词表和分数表的完整性——
// 缺失的映射在评分时会落到兜底值上。
func (s *RubricStore) Replace(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("评分规则必须是JSON对象")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return fmt.Errorf("评分规则必须是合法的JSON对象: %v", err)
	}
	if obj == nil {
		return fmt.Errorf("评分规则不能为null")
	}

	if err := os.WriteFile(s.path, trimmed, 0644); err != nil {
		return fmt.Errorf("评分规则写入失败: %v", err)
	}

	// 与load同样的语义：结构不兼容时降级为默认规则，文件仍保留原样
	var rubric models.Rubric
	if err := json.Unmarshal(trimmed, &rubric); err != nil {
		rubric = models.DefaultRubric()
	}
	s.set(rubric)
	return nil
}

// Watch 监听规则文件所在目录，文件被改写或替换时自动重载
// 监听目录而不是文件本身，编辑器原子替换（rename+create）也能感知到。
func (s *RubricStore) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					s.reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				config.Logger.Warnw("评分规则文件监听出错", "error", err)
			}
		}
	}()

	return nil
}

// Close 停止文件监听
func (s *RubricStore) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
