package di

import (
	"fmt"
	"reflect"
)

// InjectionMember 用户显式声明的成员绑定
// 注册时通过 WithCtorArgs / WithField / WithMethod 配置，
// 对同一成员，显式绑定优先于属性发现。
type InjectionMember interface {
	// Claims 判断该绑定是否认领指定种类的成员
	Claims(typ reflect.Type, kind MemberKind) bool

	// Validate 校验绑定与目标类型的结构兼容性
	// 不兼容时返回 InvalidRegistrationError，解析计划不会生成。
	Validate(def *ServiceDefinition) error

	// descriptors 生成该绑定对应的成员描述符
	descriptors(def *ServiceDefinition) ([]*MemberDescriptor, error)
}

// Auto 占位符：按成员声明类型从容器解析
// 用于显式参数列表中只想覆盖部分参数的场合。
var Auto = autoMarker{}

type autoMarker struct{}

// Named 占位符：按成员声明类型 + 指定名称从容器解析
//
// 示例：
//
//	di.WithField("Cache", di.Named("primary"))
func Named(name string) any {
	return namedMarker{name: name}
}

type namedMarker struct {
	name string
}

// ---------------- 字段绑定 ----------------

// FieldMember 显式字段绑定
//
// 示例：
//
//	di.Register[*Server](c, di.WithField("Port", 8080))
type FieldMember struct {
	// Field 字段名
	Field string

	// Source 值来源：字面量、Token、reflect.Type、ValueResolver、
	// 工厂函数或 Auto/Named 占位符
	Source any
}

// Claims 实现 InjectionMember
func (m FieldMember) Claims(typ reflect.Type, kind MemberKind) bool {
	return kind == KindField
}

// Validate 实现 InjectionMember
func (m FieldMember) Validate(def *ServiceDefinition) error {
	structType := def.structType()
	if structType == nil {
		return &InvalidRegistrationError{Type: def.Type, Reason: "字段绑定要求结构体实现类型"}
	}
	field, ok := structType.FieldByName(m.Field)
	if !ok {
		return &InvalidRegistrationError{Type: def.Type, Reason: fmt.Sprintf("字段 %s 不存在", m.Field)}
	}
	if !field.IsExported() {
		return &InvalidRegistrationError{Type: def.Type, Reason: fmt.Sprintf("字段 %s 未导出，无法注入", m.Field)}
	}
	if _, err := sourceFor(m.Source, field.Type); err != nil {
		return err
	}
	return nil
}

func (m FieldMember) descriptors(def *ServiceDefinition) ([]*MemberDescriptor, error) {
	structType := def.structType()
	field, _ := structType.FieldByName(m.Field)
	return []*MemberDescriptor{{
		Declaring:  structType,
		Kind:       KindField,
		FieldIndex: field.Index[0],
		FieldName:  field.Name,
		ValueType:  field.Type,
		Sources:    []any{m.Source},
	}}, nil
}

// ---------------- 方法绑定 ----------------

// MethodMember 显式方法绑定，按位置参数调用
//
// 示例：
//
//	di.Register[*Server](c, di.WithMethod("SetLogger", di.Auto))
type MethodMember struct {
	// Method 方法名
	Method string

	// Args 每个参数的值来源，数量必须与方法参数一致
	Args []any
}

// Claims 实现 InjectionMember
func (m MethodMember) Claims(typ reflect.Type, kind MemberKind) bool {
	return kind == KindMethod
}

// Validate 实现 InjectionMember
func (m MethodMember) Validate(def *ServiceDefinition) error {
	method, err := m.lookup(def)
	if err != nil {
		return err
	}
	fnType := method.Type
	// 方法集来自指针接收者，参数 0 是接收者本身
	numIn := fnType.NumIn() - 1
	if len(m.Args) != numIn {
		return &InvalidRegistrationError{
			Type:   def.Type,
			Reason: fmt.Sprintf("方法 %s 需要 %d 个参数，绑定提供了 %d 个", m.Method, numIn, len(m.Args)),
		}
	}
	for i, arg := range m.Args {
		if _, err := sourceFor(arg, fnType.In(i+1)); err != nil {
			return err
		}
	}
	return nil
}

func (m MethodMember) lookup(def *ServiceDefinition) (reflect.Method, error) {
	structType := def.structType()
	if structType == nil {
		return reflect.Method{}, &InvalidRegistrationError{Type: def.Type, Reason: "方法绑定要求结构体实现类型"}
	}
	method, ok := reflect.PtrTo(structType).MethodByName(m.Method)
	if !ok {
		return reflect.Method{}, &InvalidRegistrationError{Type: def.Type, Reason: fmt.Sprintf("方法 %s 不存在", m.Method)}
	}
	return method, nil
}

func (m MethodMember) descriptors(def *ServiceDefinition) ([]*MemberDescriptor, error) {
	method, err := m.lookup(def)
	if err != nil {
		return nil, err
	}
	fnType := method.Type
	paramTypes := make([]reflect.Type, 0, fnType.NumIn()-1)
	for i := 1; i < fnType.NumIn(); i++ {
		paramTypes = append(paramTypes, fnType.In(i))
	}
	desc := &MemberDescriptor{
		Declaring:  def.structType(),
		Kind:       KindMethod,
		MethodName: m.Method,
		ParamTypes: paramTypes,
		Sources:    m.Args,
	}
	if len(paramTypes) > 0 {
		desc.ValueType = paramTypes[0]
	}
	return []*MemberDescriptor{desc}, nil
}

// ---------------- 构造参数绑定 ----------------

// CtorMember 显式构造函数参数绑定
// 覆盖工厂/构造函数的参数解析，Auto 表示该位置仍按类型解析。
//
// 示例：
//
//	di.Register[*Database](c, di.WithFactory(NewDatabase),
//		di.WithCtorArgs("file::memory:", di.Auto))
type CtorMember struct {
	// Args 每个构造参数的值来源
	Args []any
}

// Claims 实现 InjectionMember
func (m CtorMember) Claims(typ reflect.Type, kind MemberKind) bool {
	return kind == KindCtorParam
}

// Validate 实现 InjectionMember
func (m CtorMember) Validate(def *ServiceDefinition) error {
	if def.Impl == nil || reflect.TypeOf(def.Impl).Kind() != reflect.Func {
		return &InvalidRegistrationError{Type: def.Type, Reason: "构造参数绑定要求工厂或构造函数"}
	}
	fnType := reflect.TypeOf(def.Impl)
	if len(m.Args) != fnType.NumIn() {
		return &InvalidRegistrationError{
			Type:   def.Type,
			Reason: fmt.Sprintf("构造函数需要 %d 个参数，绑定提供了 %d 个", fnType.NumIn(), len(m.Args)),
		}
	}
	for i, arg := range m.Args {
		if _, err := sourceFor(arg, fnType.In(i)); err != nil {
			return err
		}
	}
	return nil
}

func (m CtorMember) descriptors(def *ServiceDefinition) ([]*MemberDescriptor, error) {
	fnType := reflect.TypeOf(def.Impl)
	descs := make([]*MemberDescriptor, 0, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		descs = append(descs, &MemberDescriptor{
			Declaring:  fnType,
			Kind:       KindCtorParam,
			ParamIndex: i,
			ValueType:  fnType.In(i),
			Sources:    []any{m.Args[i]},
		})
	}
	return descs, nil
}

// ---------------- 来源解释 ----------------

// sourceFor 将显式绑定的覆盖数据翻译为值来源
// 优先级：就绪的解析策略 → Token/Named → 类型字面量（解析目标）→
// 工厂函数 → 与成员类型匹配的字面常量。
func sourceFor(src any, valueType reflect.Type) (valueSource, error) {
	switch v := src.(type) {
	case nil, autoMarker:
		return resolveSource{typ: valueType}, nil

	case namedMarker:
		return resolveSource{typ: valueType, name: v.name}, nil

	case ValueResolver:
		return resolverSource{fn: v}, nil

	case func(ctx *BuildContext) (any, error):
		return resolverSource{fn: v}, nil

	case tokenInterface:
		return resolveSource{typ: v.Type(), name: v.Name()}, nil

	case reflect.Type:
		// 类型字面量作为解析目标；若与成员类型本身相同则等价于 Auto
		return resolveSource{typ: v}, nil
	}

	// 工厂函数：返回值绑定到成员类型，参数从容器解析
	srcType := reflect.TypeOf(src)
	if srcType.Kind() == reflect.Func {
		if srcType.NumOut() == 0 || !srcType.Out(0).AssignableTo(valueType) {
			return nil, &InvalidRegistrationError{
				Type:   valueType,
				Reason: fmt.Sprintf("工厂 %v 的首个返回值必须可赋给 %v", srcType, valueType),
			}
		}
		args := make([]reflect.Type, srcType.NumIn())
		for i := range args {
			args[i] = srcType.In(i)
		}
		return factorySource{
			fn:      reflect.ValueOf(src),
			args:    args,
			invoker: createInvoker(src),
		}, nil
	}

	// 字面常量
	if srcType.AssignableTo(valueType) || srcType.ConvertibleTo(valueType) {
		return literalSource{val: src}, nil
	}

	return nil, &InvalidRegistrationError{
		Type:   valueType,
		Reason: fmt.Sprintf("覆盖值类型 %T 无法赋给成员类型 %v", src, valueType),
	}
}
