package di

import (
	"fmt"
	"reflect"
)

// MemberKind 成员种类，标识一个可注入点的形态
type MemberKind int

const (
	// KindCtorParam 构造函数（工厂函数）参数
	KindCtorParam MemberKind = iota
	// KindField 结构体字段
	// Go 中没有独立的属性概念，导出字段即注入属性
	KindField
	// KindMethod 注入方法，按位置参数调用
	KindMethod
)

// String 返回成员种类的字符串表示
func (k MemberKind) String() string {
	switch k {
	case KindCtorParam:
		return "ctor"
	case KindField:
		return "field"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// MemberDescriptor 描述一个可注入点（字段、方法或构造函数参数）
// 由选择器在构建解析计划时生成，生成后不可变，仅归属于发现它的计划。
type MemberDescriptor struct {
	// Declaring 声明该成员的结构体类型（已解指针）
	Declaring reflect.Type

	// Kind 成员种类
	Kind MemberKind

	// FieldIndex 字段下标（仅 KindField）
	FieldIndex int

	// FieldName 字段名（仅 KindField）
	FieldName string

	// MethodName 方法名（仅 KindMethod）
	MethodName string

	// ParamIndex 参数下标（仅 KindCtorParam）
	ParamIndex int

	// ValueType 成员的声明值类型
	// 字段为字段类型，构造参数为参数类型，方法为首个参数类型。
	ValueType reflect.Type

	// ParamTypes 方法的全部参数类型（仅 KindMethod）
	ParamTypes []reflect.Type

	// Attr 发现该成员的标记（若经属性发现路径产生）
	Attr *Attribute

	// Sources 显式注入成员携带的覆盖数据
	// 字段与构造参数对应单个元素，方法按参数位置对应多个元素。
	// 为空表示按成员类型默认解析。
	Sources []any

	// factory 属性发现路径命中的工厂（选择时的工厂表快照）
	factory *AttributeFactory
}

// identity 返回成员在一次选择过程中的去重标识
func (m *MemberDescriptor) identity() string {
	switch m.Kind {
	case KindField:
		return "field:" + m.FieldName
	case KindMethod:
		return "method:" + m.MethodName
	default:
		return fmt.Sprintf("ctor:%d", m.ParamIndex)
	}
}

// String 用于错误信息
func (m *MemberDescriptor) String() string {
	switch m.Kind {
	case KindField:
		return fmt.Sprintf("%v.%s", m.Declaring, m.FieldName)
	case KindMethod:
		return fmt.Sprintf("%v.%s()", m.Declaring, m.MethodName)
	default:
		return fmt.Sprintf("%v 构造参数 %d", m.Declaring, m.ParamIndex)
	}
}
