package cron

import (
	"fmt"
	"reflect"

	"github.com/gocrud/inject/di"
	"github.com/gocrud/inject/logging"
)

// Builder Cron 配置构建器
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	location         string
	jobs             []jobDefinition
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{
		enableSeconds:    false,
		enableCronLogger: false,
		location:         "UTC",
		jobs:             make([]jobDefinition, 0),
	}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// WithLocation 设置时区
func (b *Builder) WithLocation(location string) *Builder {
	b.location = location
	return b
}

// EnableCronLogger 启用 cron 库的内部调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// AddJob 添加简单任务（无依赖注入）
func (b *Builder) AddJob(spec, name string, handler func()) *Builder {
	b.jobs = append(b.jobs, jobDefinition{
		spec:    spec,
		name:    name,
		handler: handler,
	})
	return b
}

// AddJobWithDI 添加带依赖注入的任务
// handler 可以是任何函数，参数会自动从 DI 容器解析
//
// 示例：
//
//	builder.AddJobWithDI("0 */5 * * * *", "sync-data", func(svc *DataService, logger logging.Logger) {
//	    svc.Sync()
//	})
func (b *Builder) AddJobWithDI(spec, name string, handler any) *Builder {
	b.jobs = append(b.jobs, jobDefinition{
		spec:    spec,
		name:    name,
		handler: handler,
	})
	return b
}

// build 构建 CronService（内部使用）
func (b *Builder) build(logger logging.Logger) (*service, error) {
	// 创建 cronService
	cronSvc := newService(logger, func(opts *options) {
		opts.EnableSeconds = b.enableSeconds
		opts.EnableCronLogger = b.enableCronLogger
		opts.Location = b.location
		opts.Logger = logger
	})

	// 带依赖注入的任务需要容器，延迟到 Start 时包装
	cronSvc.jobDefs = b.jobs

	return cronSvc, nil
}

// wrapHandlerWithDI 包装处理器：参数从容器注入，错误与 panic 走框架日志
func wrapHandlerWithDI(container di.Container, logger logging.Logger, handler any) (func(), error) {
	if t := reflect.TypeOf(handler); t == nil || t.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function, got %T", handler)
	}

	wrappedFunc := func() {
		defer func() {
			if r := recover(); r != nil {
				if logger != nil {
					logger.Error("Cron job panicked",
						logging.Field{Key: "panic", Value: r})
				} else {
					fmt.Println("Cron job panicked:", r)
				}
			}
		}()

		if err := di.Invoke(container, handler); err != nil {
			if logger != nil {
				logger.Error("Cron job failed",
					logging.Field{Key: "error", Value: err.Error()})
			}
		}
	}

	return wrappedFunc, nil
}
