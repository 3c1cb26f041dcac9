package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
)

// LoadOptions 配置加载选项
type LoadOptions struct {
	Paths        []string
	HotReload    bool
	KeyDelimiter string
}

// LoadOption 配置加载选项函数
type LoadOption func(*LoadOptions)

// WithHotReload 启用热重载
func WithHotReload() LoadOption {
	return func(o *LoadOptions) {
		o.HotReload = true
	}
}

// Load 加载配置文件并注册到 Runtime 容器
// 支持 YAML 和 JSON，按扩展名选择解析器
func Load(path string, opts ...LoadOption) core.Option {
	return func(rt *core.Runtime) error {
		options := &LoadOptions{
			Paths:        []string{path},
			HotReload:    false,
			KeyDelimiter: ":",
		}
		for _, opt := range opts {
			opt(options)
		}

		builder := config.NewConfigurationBuilder()
		for _, p := range options.Paths {
			if filepath.Ext(p) == ".json" {
				builder.AddJsonFile(p)
			} else {
				builder.AddYamlFile(p)
			}
		}
		builder.AddEnvironmentVariables("")

		cfg, err := builder.BuildReloadable()
		if err != nil {
			return fmt.Errorf("config: 加载 %s 失败: %w", path, err)
		}

		// 注册 Configuration 接口到 DI 容器
		di.Register[config.Configuration](rt.Container, di.Use[*config.ReloadableConfiguration](), di.WithValue(cfg))
		di.Register[*config.ReloadableConfiguration](rt.Container, di.WithValue(cfg))

		// 注册为 Runtime Feature
		rt.Features.Set(cfg)

		// 如果启用了热重载，启动配置源监听
		if options.HotReload {
			rt.Lifecycle.OnStart(func(ctx context.Context) error {
				for _, source := range builder.GetSources() {
					if err := source.StartWatch(ctx, func() {
						_ = cfg.Reload()
					}); err != nil {
						return fmt.Errorf("config: 启动 %s 监听失败: %w", source.Name(), err)
					}
				}
				return nil
			})
			rt.Lifecycle.OnStop(func(ctx context.Context) error {
				for _, source := range builder.GetSources() {
					source.StopWatch()
				}
				return nil
			})
		}

		return nil
	}
}

// Bind 将配置绑定到结构体并注册到 DI 容器
func Bind[T any](rt *core.Runtime, section string) error {
	return rt.Invoke(func(cfg config.Configuration) error {
		var settings T
		if err := cfg.Bind(section, &settings); err != nil {
			return fmt.Errorf("config: failed to bind section '%s': %w", section, err)
		}

		// 注册为单例
		return rt.Provide(&settings)
	})
}
