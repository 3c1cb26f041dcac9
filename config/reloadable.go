package config

import (
	"fmt"
	"sync"
)

// ReloadableConfiguration 可重载配置（类似于 .NET Core 的 IConfigurationRoot.Reload）
// 读取走 ValueStore 的无锁快照；Reload 重新加载所有配置源并原子替换快照，
// 之后按注册顺序触发 OnReload 回调。
type ReloadableConfiguration struct {
	builder   *ConfigurationBuilder
	store     *ValueStore
	callbacks []func()
	mu        sync.Mutex
}

// BuildReloadable 构建可重载配置，立即执行一次初始加载
func (b *ConfigurationBuilder) BuildReloadable() (*ReloadableConfiguration, error) {
	r := &ReloadableConfiguration{
		builder: b,
		store:   NewValueStore(),
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload 重新加载所有配置源并替换当前快照
func (r *ReloadableConfiguration) Reload() error {
	data := make(map[string]any)

	for _, source := range r.builder.GetSources() {
		loaded, err := source.Load()
		if err != nil {
			return fmt.Errorf("failed to load config source %s: %w", source.Name(), err)
		}
		mergeMaps(data, loaded)
	}

	r.store.Store(data)

	r.mu.Lock()
	callbacks := make([]func(), len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb()
	}

	return nil
}

// OnReload 注册配置重载回调（OptionsCache 通过该钩子自动刷新）
func (r *ReloadableConfiguration) OnReload(callback func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}

// view 在当前快照上构造只读视图，读操作全部委托给它
func (r *ReloadableConfiguration) view() *configuration {
	data := r.store.Load()
	if data == nil {
		data = make(map[string]any)
	}
	return &configuration{data: data}
}

func (r *ReloadableConfiguration) Get(key string) string {
	return r.view().Get(key)
}

func (r *ReloadableConfiguration) GetWithDefault(key, defaultValue string) string {
	return r.view().GetWithDefault(key, defaultValue)
}

func (r *ReloadableConfiguration) GetInt(key string) (int, error) {
	return r.view().GetInt(key)
}

func (r *ReloadableConfiguration) GetBool(key string) (bool, error) {
	return r.view().GetBool(key)
}

func (r *ReloadableConfiguration) GetSection(key string) Configuration {
	return r.view().GetSection(key)
}

func (r *ReloadableConfiguration) Bind(key string, target any) error {
	return r.view().Bind(key, target)
}

func (r *ReloadableConfiguration) GetAll() map[string]any {
	return r.view().GetAll()
}
