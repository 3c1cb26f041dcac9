package database

import (
	"context"
	"fmt"

	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
	"gorm.io/gorm"
)

// BuilderOption 用于配置 Database Builder
type BuilderOption func(*Builder)

// WithDatabase 添加数据库配置
func WithDatabase(name string, dialector gorm.Dialector, opts ...func(*DatabaseOptions)) BuilderOption {
	return func(b *Builder) {
		// 将变长参数转换为单个配置函数
		var configure func(*DatabaseOptions)
		if len(opts) > 0 {
			configure = func(o *DatabaseOptions) {
				for _, opt := range opts {
					opt(o)
				}
			}
		}
		b.Add(name, dialector, configure)
	}
}

// New 启用数据库能力
func New(opts ...BuilderOption) core.Option {
	return func(rt *core.Runtime) error {
		builder := NewBuilder()
		for _, opt := range opts {
			opt(builder)
		}

		// 2. 构建工厂（容器尚未构建，日志此时不可用）
		factory, err := builder.Build(nil)
		if err != nil {
			return err
		}
		if factory == nil {
			return nil
		}

		// 3. 注册工厂到 DI
		if err := rt.Provide(factory, di.WithValue(factory)); err != nil {
			return err
		}

		// 4. 注册各个数据库实例到 DI
		var defaultRegErr error
		factory.Each(func(name string, db *gorm.DB) {
			// 注册命名实例
			if err := rt.Provide(db, di.WithName(name), di.WithValue(db)); err != nil {
				defaultRegErr = err
			}

			// 如果是 default，同时也注册为默认实例
			if name == "default" {
				if err := rt.Provide(db, di.WithValue(db)); err != nil {
					defaultRegErr = err
				}
			}
		})

		if defaultRegErr != nil {
			return fmt.Errorf("database: failed to register instance: %w", defaultRegErr)
		}

		// 5. 注册清理钩子
		rt.Lifecycle.OnStop(func(ctx context.Context) error {
			if logger, err := di.Resolve[logging.Logger](rt.Container); err == nil {
				logger.Info("Closing database connections")
			}
			return factory.Close()
		})

		return nil
	}
}
