package core

import (
	"reflect"

	"github.com/gocrud/inject/di"
)

// AddSingleton 将接口 T 绑定到实现 impl，并注册为单例
// impl 可以是实例，也可以是构造函数
//
// 示例:
//
//	core.AddSingleton[IService](services, NewServiceImpl)
func AddSingleton[T any](s *ServiceCollection, impl any) {
	addService[T](s, impl, di.ScopeSingleton)
}

// AddTransient 将接口 T 绑定到实现 impl，并注册为瞬态服务
// impl 可以是实例，也可以是构造函数
//
// 示例:
//
//	core.AddTransient[IWorker](services, NewWorker)
func AddTransient[T any](s *ServiceCollection, impl any) {
	addService[T](s, impl, di.ScopeTransient)
}

// AddScoped 将接口 T 绑定到实现 impl，并注册为作用域服务
// impl 可以是实例，也可以是构造函数
//
// 示例:
//
//	core.AddScoped[IRequestScope](services, NewRequestScope)
func AddScoped[T any](s *ServiceCollection, impl any) {
	addService[T](s, impl, di.ScopeScoped)
}

func addService[T any](s *ServiceCollection, impl any, scope di.ScopeType) {
	opts := make([]di.Option, 0, 2)
	if impl != nil && reflect.TypeOf(impl).Kind() == reflect.Func {
		opts = append(opts, di.WithFactory(impl))
	} else {
		opts = append(opts, di.WithValue(impl))
	}
	// 作用域放在最后，覆盖 WithValue 的默认单例
	opts = append(opts, di.WithScope(scope))
	di.Register[T](s.container, opts...)
}
