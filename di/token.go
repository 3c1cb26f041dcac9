package di

import (
	"fmt"
	"reflect"
)

// Token 表示一个依赖注入的令牌，用于区分相同类型的不同依赖
// 一个 Token 等价于 (类型, 名称) 服务键。
//
// 使用场景：
//   - 需要注册多个相同类型但用途不同的实例（如多个数据库连接）
//   - 配置值（如字符串、整数等基本类型）
//
// 示例：
//
//	// 定义 Token
//	var DBConnectionString = di.NewToken[string]("db-connection")
//
//	// 注册
//	di.Register[string](c, di.WithName(DBConnectionString.Name()),
//		di.WithValue("postgres://..."))
//
//	// 获取
//	conn, _ := di.ResolveToken(c, DBConnectionString)
type Token[T any] struct {
	name string
	typ  reflect.Type
}

// NewToken 创建一个新的 Token
//
// 参数 name 用于标识此 Token，应该是唯一的描述性名称。
func NewToken[T any](name string) *Token[T] {
	return &Token[T]{
		name: name,
		typ:  reflect.TypeOf((*T)(nil)).Elem(),
	}
}

// Name 返回 Token 的名称
func (t *Token[T]) Name() string {
	return t.name
}

// Type 返回 Token 的类型
func (t *Token[T]) Type() reflect.Type {
	return t.typ
}

// String 返回 Token 的字符串表示
func (t *Token[T]) String() string {
	return fmt.Sprintf("Token[%s](%s)", t.typ, t.name)
}

// tokenInterface Token 的通用接口（用于类型判断）
type tokenInterface interface {
	Name() string
	Type() reflect.Type
	String() string
}

// TypeOf 获取类型 T 的 reflect.Type（泛型辅助函数）
//
// 示例：
//
//	userServiceType := di.TypeOf[UserService]()
//	instance, _ := container.Get(userServiceType)
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
