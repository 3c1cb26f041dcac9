package di

import (
	"reflect"
	"sync"
)

// ScopeType 定义了服务的生命周期。
type ScopeType int

const (
	// ScopeSingleton 每个容器创建一个实例。
	ScopeSingleton ScopeType = iota
	// ScopeTransient 每次请求创建一个新实例。
	ScopeTransient
	// ScopeScoped 每个作用域创建一个实例。
	ScopeScoped
)

// ServiceKey 是服务映射的唯一键。
type ServiceKey struct {
	Type reflect.Type
	Name string
}

// ServiceDefinition 包含注册服务的元数据。
type ServiceDefinition struct {
	ID        int
	Type      reflect.Type
	Name      string // 服务名称
	Scope     ScopeType
	ImplType  reflect.Type // 用于结构体反射
	Impl      any          // 工厂函数或结构体指针
	IsFactory bool
	IsValue   bool
	// InjectFields 是否对 IsValue 的实例执行成员注入
	InjectFields bool

	// Members 显式配置的注入成员，优先于属性发现的成员
	Members []InjectionMember

	// Annotations 声明式方法标注（Annotated 接口之外的补充渠道）
	Annotations []Annotation

	// Selectors 本注册专用的成员选择器，nil 时使用容器默认选择器链
	Selectors []MemberSelector

	// 解析计划缓存
	// 计划对同一 (类型, 注册, 工厂表快照) 是纯函数，
	// planOnce 保证每个注册最多构建一次。
	plan     *resolutionPlan
	planErr  error
	planOnce sync.Once

	// 用于单例作用域
	singletonInst any
	singletonErr  error
	singletonOnce sync.Once
}

// key 返回定义的服务键
func (d *ServiceDefinition) key() ServiceKey {
	return ServiceKey{Type: d.Type, Name: d.Name}
}

// structType 返回用于成员注入的结构体类型（解指针），非结构体返回 nil
func (d *ServiceDefinition) structType() reflect.Type {
	typ := d.ImplType
	if typ == nil {
		typ = d.Type
	}
	if typ != nil && typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil
	}
	return typ
}
