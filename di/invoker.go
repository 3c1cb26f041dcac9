package di

import (
	"fmt"
	"reflect"
)

// Invoker 实例化调用器
// 封装了反射调用的细节，预先检查错误和返回值
type Invoker func(args []reflect.Value) (any, error)

// createInvoker 创建工厂/构造函数调用器
// 第一个返回值作为实例，最后一个返回值若为 error 则传播。
func createInvoker(fn any) Invoker {
	fnVal := reflect.ValueOf(fn)

	return func(args []reflect.Value) (any, error) {
		results := fnVal.Call(args)
		if len(results) == 0 {
			return nil, fmt.Errorf("di: 工厂/构造函数没有返回值")
		}

		// 检查 error
		if len(results) > 1 {
			last := results[len(results)-1]
			if last.Type().Implements(errorType) {
				if !last.IsNil() {
					return nil, fmt.Errorf("di: 构造失败: %w", last.Interface().(error))
				}
			}
		}

		return results[0].Interface(), nil
	}
}
