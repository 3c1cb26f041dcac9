package di

import (
	"reflect"
)

// resolvingContainer 能在构建上下文中解析服务键的容器（根容器或作用域）
type resolvingContainer interface {
	resolveKey(ctx *BuildContext, key ServiceKey) (any, error)
}

// BuildContext 构建上下文
// 单次解析调用的可变状态：在建实例、当前请求的类型与名称，
// 以及可递归进入整个容器的解析操作。解析是同步单线程的，
// 不同调用各持有独立的上下文，彼此无需协调。
type BuildContext struct {
	// Type 当前请求的服务类型
	Type reflect.Type

	// Name 当前请求的服务名称
	Name string

	// Existing 在建实例
	// 种子解析器产出后由成员步骤原地修改。
	Existing any

	owner resolvingContainer
	stack []ServiceKey
}

// NewBuildContext 为容器外的调用方创建顶层构建上下文
// 与 Engine.GetResolver / CompilePlan 返回的解析操作配合使用。
func NewBuildContext(owner Container, typ reflect.Type, name string) *BuildContext {
	return newBuildContext(owner, typ, name)
}

// newBuildContext 创建顶层解析的构建上下文
// 根请求键预先入栈，直接自引用（A 依赖 A）同样会被检出。
func newBuildContext(owner resolvingContainer, typ reflect.Type, name string) *BuildContext {
	return &BuildContext{
		Type:  typ,
		Name:  name,
		owner: owner,
		stack: []ServiceKey{{Type: typ, Name: name}},
	}
}

// Resolve 递归解析 (类型, 名称) 对应的服务
// 解析栈上再次出现同一个键时返回 CircularDependencyError。
func (c *BuildContext) Resolve(typ reflect.Type, name string) (any, error) {
	key := ServiceKey{Type: typ, Name: name}

	for _, k := range c.stack {
		if k == key {
			chain := make([]ServiceKey, len(c.stack), len(c.stack)+1)
			copy(chain, c.stack)
			chain = append(chain, key)
			return nil, &CircularDependencyError{Chain: chain}
		}
	}

	c.stack = append(c.stack, key)
	defer func() {
		c.stack = c.stack[:len(c.stack)-1]
	}()

	return c.owner.resolveKey(c, key)
}

// enter 保存当前请求状态并切换到新键，返回恢复函数
// 嵌套的 createInstance 借此共享同一个解析栈。
func (c *BuildContext) enter(key ServiceKey) func() {
	prevType, prevName, prevExisting := c.Type, c.Name, c.Existing
	c.Type, c.Name, c.Existing = key.Type, key.Name, nil
	return func() {
		c.Type, c.Name, c.Existing = prevType, prevName, prevExisting
	}
}
