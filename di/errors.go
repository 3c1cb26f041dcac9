package di

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// CircularDependencyError 循环依赖错误
// 在递归解析过程中检测到依赖环时返回。
// 此错误永远向上传播，即使对于可选依赖也不会被吞掉，
// 否则可选依赖会掩盖无限递归的缺陷。
type CircularDependencyError struct {
	// Chain 依赖链，最后一个元素是再次出现的服务
	Chain []ServiceKey
}

func (e *CircularDependencyError) Error() string {
	parts := make([]string, 0, len(e.Chain))
	for _, key := range e.Chain {
		if key.Name == "" {
			parts = append(parts, fmt.Sprintf("%v", key.Type))
		} else {
			parts = append(parts, fmt.Sprintf("%v(name=%s)", key.Type, key.Name))
		}
	}
	return "di: 检测到循环依赖: " + strings.Join(parts, " -> ")
}

// IsCircular 判断错误链的根因是否为循环依赖
// 通过 errors.As 遍历 %w 包装链。
func IsCircular(err error) bool {
	var circular *CircularDependencyError
	return errors.As(err, &circular)
}

// MissingDependencyError 缺失依赖错误
// 请求的类型（和名称）没有对应的服务注册。
type MissingDependencyError struct {
	Key ServiceKey
}

func (e *MissingDependencyError) Error() string {
	if e.Key.Name == "" {
		return fmt.Sprintf("di: 未找到服务 %v", e.Key.Type)
	}
	return fmt.Sprintf("di: 未找到服务 %v (name=%s)", e.Key.Type, e.Key.Name)
}

// InvalidRegistrationError 无效注册错误
// 在构建解析计划时发现的结构性配置错误，
// 例如注入成员与目标类型不兼容。计划不会被生成。
type InvalidRegistrationError struct {
	Type   reflect.Type
	Reason string
}

func (e *InvalidRegistrationError) Error() string {
	return fmt.Sprintf("di: 服务 %v 注册无效: %s", e.Type, e.Reason)
}
