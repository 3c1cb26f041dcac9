package di

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

// Scope 表示作用域生命周期上下文。
type Scope interface {
	Container
	// Dispose 释放与作用域关联的资源。
	Dispose()
}

type scopeEntry struct {
	val atomic.Value // 存储实例（如果尚未创建则为 nil）
	mu  sync.Mutex   // 用于创建此特定实例的锁
}

type scope struct {
	parent  *container
	entries []scopeEntry // 按 ServiceDefinition.ID 索引的数组
}

func newScope(parent *container) *scope {
	count := parent.serviceCount()
	return &scope{
		parent:  parent,
		entries: make([]scopeEntry, count),
	}
}

func (s *scope) Add(def *ServiceDefinition) error {
	return fmt.Errorf("di: 无法在作用域上注册服务")
}

func (s *scope) Build() error {
	return nil // 作用域已基于父容器构建
}

func (s *scope) CreateScope() Scope {
	return s.parent.CreateScope()
}

func (s *scope) Engine() *Engine {
	return s.parent.engine
}

func (s *scope) Get(typ reflect.Type) (any, error) {
	return s.GetNamed(typ, "")
}

func (s *scope) GetNamed(typ reflect.Type, name string) (any, error) {
	if !s.parent.built.Load() {
		return nil, fmt.Errorf("di: 容器未构建")
	}

	ctx := newBuildContext(s, typ, name)
	return s.resolveKey(ctx, ServiceKey{Type: typ, Name: name})
}

// resolveKey 在构建上下文中解析服务键。
// 瞬态与作用域服务以本作用域为容器解析依赖，
// 单例总是从根容器解析（不捕获作用域实例）。
func (s *scope) resolveKey(ctx *BuildContext, key ServiceKey) (any, error) {
	def, ok := s.parent.definitions[key]
	if !ok {
		return nil, &MissingDependencyError{Key: key}
	}

	switch def.Scope {
	case ScopeSingleton:
		return s.parent.GetNamed(key.Type, key.Name)

	case ScopeTransient:
		return s.parent.engine.createInstance(ctx, def)

	case ScopeScoped:
		// 使用 ID 进行 O(1) 数组访问
		if def.ID < 0 || def.ID >= len(s.entries) {
			// 如果 ID 分配正确，这不应发生
			return nil, fmt.Errorf("di: 内部错误，无效的服务 ID %d", def.ID)
		}

		// 切片大小在创建后固定，条目指针是稳定的。
		entry := &s.entries[def.ID]

		// 快速路径：检查是否已创建
		if val := entry.val.Load(); val != nil {
			return val, nil
		}

		// 慢速路径：带锁创建
		entry.mu.Lock()
		defer entry.mu.Unlock()

		// 双重检查
		if val := entry.val.Load(); val != nil {
			return val, nil
		}

		instance, err := s.parent.engine.createInstance(ctx, def)
		if err != nil {
			return nil, err
		}

		entry.val.Store(instance)
		return instance, nil
	}

	return nil, fmt.Errorf("di: 未知作用域 %v", def.Scope)
}

func (s *scope) Dispose() {
	// 释放引用以允许 GC
	for i := range s.entries {
		s.entries[i].val = atomic.Value{}
	}
	s.entries = nil
}

// serviceCount 委托给父容器
func (s *scope) serviceCount() int {
	return s.parent.serviceCount()
}
