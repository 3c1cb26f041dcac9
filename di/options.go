package di

import "reflect"

// Option 配置服务注册。
type Option func(*ServiceDefinition)

// WithScope 设置服务的生命周期范围。
func WithScope(scope ScopeType) Option {
	return func(s *ServiceDefinition) {
		s.Scope = scope
	}
}

// WithSingleton 将范围设置为 Singleton（默认）。
func WithSingleton() Option {
	return WithScope(ScopeSingleton)
}

// WithTransient 将范围设置为 Transient。
func WithTransient() Option {
	return WithScope(ScopeTransient)
}

// WithScoped 将范围设置为 Scoped。
func WithScoped() Option {
	return WithScope(ScopeScoped)
}

// WithValue 将具体的结构体实例注册为单例。
// 这意味着它已经创建，我们按原样使用它。
func WithValue(v any) Option {
	return func(s *ServiceDefinition) {
		s.Impl = v
		s.IsValue = true
		s.Scope = ScopeSingleton
	}
}

// WithInjectFields 对 WithValue 注册的实例也执行成员注入。
func WithInjectFields() Option {
	return func(s *ServiceDefinition) {
		s.InjectFields = true
	}
}

// WithFactory 注册一个工厂函数来创建实例。
// 工厂函数可以接受参数，这些参数将被注入。
func WithFactory(fn any) Option {
	return func(s *ServiceDefinition) {
		s.Impl = fn
		s.IsFactory = true
	}
}

// WithName 设置服务的名称，用于命名注入。
func WithName(name string) Option {
	return func(s *ServiceDefinition) {
		s.Name = name
	}
}

// Use 指定接口的实现类型。
func Use[T any]() Option {
	return func(s *ServiceDefinition) {
		s.ImplType = reflect.TypeOf((*T)(nil)).Elem()
	}
}

// WithCtorArgs 显式绑定构造函数参数。
// 参数数量必须与工厂/构造函数一致，di.Auto 表示该位置仍按类型解析。
//
// 示例：
//
//	di.Register[*Database](c, di.WithFactory(NewDatabase),
//		di.WithCtorArgs("file::memory:", di.Auto))
func WithCtorArgs(args ...any) Option {
	return func(s *ServiceDefinition) {
		s.Members = append(s.Members, CtorMember{Args: args})
	}
}

// WithField 显式绑定单个字段，优先于 di 标签发现。
func WithField(name string, source any) Option {
	return func(s *ServiceDefinition) {
		s.Members = append(s.Members, FieldMember{Field: name, Source: source})
	}
}

// WithMethod 显式绑定注入方法，按位置参数调用。
func WithMethod(name string, args ...any) Option {
	return func(s *ServiceDefinition) {
		s.Members = append(s.Members, MethodMember{Method: name, Args: args})
	}
}

// WithMember 追加任意显式注入成员。
func WithMember(members ...InjectionMember) Option {
	return func(s *ServiceDefinition) {
		s.Members = append(s.Members, members...)
	}
}

// WithAnnotation 为方法追加声明式标注，语法同 di 标签。
//
// 示例：
//
//	di.Register[*Server](c, di.WithAnnotation("SetLogger", ""))
//	di.Register[*Server](c, di.WithAnnotation("SetCache", "primary,optional"))
func WithAnnotation(method, tag string) Option {
	return func(s *ServiceDefinition) {
		s.Annotations = append(s.Annotations, Annotation{Method: method, Tag: tag})
	}
}

// WithSelectors 覆盖本注册使用的成员选择器链。
func WithSelectors(selectors ...MemberSelector) Option {
	return func(s *ServiceDefinition) {
		s.Selectors = selectors
	}
}
