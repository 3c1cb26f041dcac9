package di

import (
	"fmt"
	"reflect"
)

// ValueResolver 解析单个成员值的操作
type ValueResolver func(ctx *BuildContext) (any, error)

// Resolver 组合解析器，产生（或补全）一个实例
// 作为解释执行路径的单位，与批量编译后的计划行为等价。
type Resolver func(ctx *BuildContext) (any, error)

// ResolutionStep 解析步骤：解析一个值并赋给在建实例的某个成员
// 两种实现必须行为等价：
//   - ExpressionStep 可分析的中间表示，可被批量编译
//   - CompiledStep   预编译闭包，直接执行，不可再分析
type ResolutionStep interface {
	// Descriptor 返回步骤对应的成员描述符
	Descriptor() *MemberDescriptor

	// Run 对构建上下文执行步骤，原地修改 ctx.Existing
	Run(ctx *BuildContext) error
}

// ---------------- 值来源 ----------------

// valueSource 成员值的来源，表达式形式的最小单元
type valueSource interface {
	resolveValue(ctx *BuildContext) (any, error)
}

// resolveSource 从容器按 (类型, 名称) 解析
type resolveSource struct {
	typ  reflect.Type
	name string
}

func (s resolveSource) resolveValue(ctx *BuildContext) (any, error) {
	return ctx.Resolve(s.typ, s.name)
}

// literalSource 直接使用字面值
type literalSource struct {
	val any
}

func (s literalSource) resolveValue(ctx *BuildContext) (any, error) {
	return s.val, nil
}

// resolverSource 包装一个已就绪的解析策略
// 属性工厂构建出的 ValueResolver 经此接入表达式形式。
type resolverSource struct {
	fn ValueResolver
}

func (s resolverSource) resolveValue(ctx *BuildContext) (any, error) {
	return s.fn(ctx)
}

// factorySource 调用工厂函数获得值，函数参数从容器解析
type factorySource struct {
	fn      reflect.Value
	args    []reflect.Type
	invoker Invoker
}

func (s factorySource) resolveValue(ctx *BuildContext) (any, error) {
	args := make([]reflect.Value, len(s.args))
	for i, argType := range s.args {
		val, err := ctx.Resolve(argType, "")
		if err != nil {
			return nil, fmt.Errorf("di: 工厂参数 %d: %w", i, err)
		}
		args[i] = toValue(val, argType)
	}
	return s.invoker(args)
}

// ---------------- 表达式步骤（慢路径 / 可分析） ----------------

// ExpressionStep 可分析的解析步骤
// Run 直接解释执行（延迟/慢路径），Compile 降级为预编译闭包，
// 外部的整体计划编译器也可以通过 CompilePlan 将多个片段合并。
type ExpressionStep struct {
	member  *MemberDescriptor
	sources []valueSource
}

// Descriptor 实现 ResolutionStep
func (s *ExpressionStep) Descriptor() *MemberDescriptor {
	return s.member
}

// Run 解释执行：逐个解析来源，再写入成员
func (s *ExpressionStep) Run(ctx *BuildContext) error {
	vals := make([]any, len(s.sources))
	for i, src := range s.sources {
		val, err := src.resolveValue(ctx)
		if err != nil {
			return err
		}
		vals[i] = val
	}
	return writeMember(ctx.Existing, s.member, vals)
}

// Compile 将步骤降级为预编译闭包
// 编译后的步骤读取与解释路径相同的描述符数据，行为完全一致。
func (s *ExpressionStep) Compile() *CompiledStep {
	member := s.member
	sources := s.sources
	return &CompiledStep{
		member: member,
		fn: func(ctx *BuildContext) error {
			vals := make([]any, len(sources))
			for i, src := range sources {
				val, err := src.resolveValue(ctx)
				if err != nil {
					return err
				}
				vals[i] = val
			}
			return writeMember(ctx.Existing, member, vals)
		},
	}
}

// ---------------- 预编译步骤（快路径） ----------------

// CompiledStep 预编译的解析步骤
// 仅是一个可调用闭包，不携带可分析结构。
type CompiledStep struct {
	member *MemberDescriptor
	fn     func(ctx *BuildContext) error
}

// Descriptor 实现 ResolutionStep
func (s *CompiledStep) Descriptor() *MemberDescriptor {
	return s.member
}

// Run 实现 ResolutionStep
func (s *CompiledStep) Run(ctx *BuildContext) error {
	return s.fn(ctx)
}

// CompilePlan 将一组表达式片段合并编译为单个执行操作
// 供外部的整体构建计划编译器按类型缓存复用。
func CompilePlan(steps []*ExpressionStep) func(ctx *BuildContext) error {
	compiled := make([]*CompiledStep, len(steps))
	for i, step := range steps {
		compiled[i] = step.Compile()
	}
	return func(ctx *BuildContext) error {
		for _, step := range compiled {
			if err := step.Run(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// ---------------- 成员写入 ----------------

// writeMember 将解析出的值写入实例成员
// 字段直接赋值，方法按位置参数调用。
func writeMember(existing any, m *MemberDescriptor, vals []any) error {
	instVal := reflect.ValueOf(existing)
	if instVal.Kind() != reflect.Ptr || instVal.IsNil() {
		return fmt.Errorf("di: 无法注入 %v：实例必须是非空结构体指针", m)
	}

	switch m.Kind {
	case KindField:
		field := instVal.Elem().Field(m.FieldIndex)
		if len(vals) != 1 {
			return fmt.Errorf("di: 字段 %v 期望一个值，得到 %d 个", m, len(vals))
		}
		return setValue(field, vals[0], m)

	case KindMethod:
		method := instVal.MethodByName(m.MethodName)
		if !method.IsValid() {
			return fmt.Errorf("di: 实例上不存在方法 %v", m)
		}
		args := make([]reflect.Value, len(vals))
		for i, val := range vals {
			args[i] = toValue(val, m.ParamTypes[i])
		}
		results := method.Call(args)
		// 方法最后一个返回值为 error 时传播
		if len(results) > 0 {
			last := results[len(results)-1]
			if last.Type() == errorType && !last.IsNil() {
				return fmt.Errorf("di: 方法注入 %v 失败: %w", m, last.Interface().(error))
			}
		}
		return nil

	default:
		return fmt.Errorf("di: 构造参数 %v 不能作为成员步骤执行", m)
	}
}

// setValue 带转换地设置字段值
func setValue(field reflect.Value, val any, m *MemberDescriptor) error {
	if val == nil {
		// nil 保持字段为零值（可选依赖缺省的常见形态）
		return nil
	}
	vv := reflect.ValueOf(val)
	if vv.Type().AssignableTo(field.Type()) {
		field.Set(vv)
		return nil
	}
	if vv.Type().ConvertibleTo(field.Type()) {
		field.Set(vv.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("di: 值类型 %T 无法赋给成员 %v (%v)", val, m, field.Type())
}

// toValue 将 any 转为目标类型的 reflect.Value，nil 映射为零值
func toValue(val any, typ reflect.Type) reflect.Value {
	if val == nil {
		return reflect.Zero(typ)
	}
	vv := reflect.ValueOf(val)
	if vv.Type() != typ && vv.Type().ConvertibleTo(typ) && !vv.Type().AssignableTo(typ) {
		return vv.Convert(typ)
	}
	return vv
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
