package di

import (
	"fmt"
	"reflect"
)

// MemberSelector 成员选择器
// 给定目标类型与注册，产出参与注入的有序成员集合：
// 显式配置的注入成员在前（配置顺序），随后按声明顺序枚举类型成员，
// 逐个用属性工厂表认领（表顺序，先到先得），并按成员标识去重。
// 对同一 (类型, 注册, 工厂表快照) 是纯函数。
type MemberSelector interface {
	// Kind 返回选择器负责的成员种类
	Kind() MemberKind

	// Select 产出有序成员描述符列表
	// 类型没有该种类的成员时返回空列表（不是错误）。
	Select(def *ServiceDefinition) ([]*MemberDescriptor, error)
}

// defaultSelectors 默认选择器链：构造参数先于字段与方法注入
func defaultSelectors(registry *FactoryRegistry) []MemberSelector {
	return []MemberSelector{
		&ctorSelector{},
		&fieldSelector{registry: registry},
		&methodSelector{registry: registry},
	}
}

// selectorsFor 返回注册配置的选择器覆盖，缺省回退到默认链
func selectorsFor(def *ServiceDefinition, registry *FactoryRegistry) []MemberSelector {
	if def.Selectors != nil {
		return def.Selectors
	}
	return defaultSelectors(registry)
}

// explicitMembers 产出注册中认领本种类的显式绑定的描述符
// 每个新成员标识记入 seen。
func explicitMembers(def *ServiceDefinition, kind MemberKind, seen map[string]bool) ([]*MemberDescriptor, error) {
	var out []*MemberDescriptor
	for _, im := range def.Members {
		if !im.Claims(def.Type, kind) {
			continue
		}
		if err := im.Validate(def); err != nil {
			return nil, err
		}
		descs, err := im.descriptors(def)
		if err != nil {
			return nil, err
		}
		for _, d := range descs {
			if seen[d.identity()] {
				continue
			}
			seen[d.identity()] = true
			out = append(out, d)
		}
	}
	return out, nil
}

// rejectIncompatible 目标不支持该种类成员时校验显式绑定
// 结构上不兼容的绑定必须在计划构建期报错，而不是被静默丢弃。
func rejectIncompatible(def *ServiceDefinition, kind MemberKind) error {
	for _, im := range def.Members {
		if !im.Claims(def.Type, kind) {
			continue
		}
		if err := im.Validate(def); err != nil {
			return err
		}
	}
	return nil
}

// ---------------- 字段选择器 ----------------

type fieldSelector struct {
	registry *FactoryRegistry
}

func (s *fieldSelector) Kind() MemberKind { return KindField }

func (s *fieldSelector) Select(def *ServiceDefinition) ([]*MemberDescriptor, error) {
	structType := def.structType()
	if structType == nil {
		if err := rejectIncompatible(def, KindField); err != nil {
			return nil, err
		}
		return nil, nil
	}

	seen := make(map[string]bool)
	out, err := explicitMembers(def, KindField, seen)
	if err != nil {
		return nil, err
	}

	// 按声明顺序枚举字段，属性工厂表认领
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		tag, hasTag := field.Tag.Lookup("di")
		if !hasTag {
			continue
		}
		if !field.IsExported() {
			return nil, &InvalidRegistrationError{
				Type:   def.Type,
				Reason: fmt.Sprintf("字段 %s 带有 di 标签但未导出", field.Name),
			}
		}

		desc := &MemberDescriptor{
			Declaring:  structType,
			Kind:       KindField,
			FieldIndex: i,
			FieldName:  field.Name,
			ValueType:  field.Type,
			Attr:       parseAttribute(tag),
		}
		if seen[desc.identity()] {
			continue
		}

		factory, ok := s.registry.match(desc.Attr)
		if !ok {
			continue
		}
		desc.factory = &factory

		seen[desc.identity()] = true
		out = append(out, desc)
	}
	return out, nil
}

// ---------------- 方法选择器 ----------------

type methodSelector struct {
	registry *FactoryRegistry
}

func (s *methodSelector) Kind() MemberKind { return KindMethod }

func (s *methodSelector) Select(def *ServiceDefinition) ([]*MemberDescriptor, error) {
	structType := def.structType()
	if structType == nil {
		if err := rejectIncompatible(def, KindMethod); err != nil {
			return nil, err
		}
		return nil, nil
	}

	seen := make(map[string]bool)
	out, err := explicitMembers(def, KindMethod, seen)
	if err != nil {
		return nil, err
	}

	// 声明式标注：注册配置的 Annotations 在前，
	// 类型自身通过 Annotated 接口声明的在后。
	annotations := make([]Annotation, 0, len(def.Annotations))
	annotations = append(annotations, def.Annotations...)
	if annotated, ok := reflect.New(structType).Interface().(Annotated); ok {
		annotations = append(annotations, annotated.InjectAnnotations()...)
	}

	ptrType := reflect.PtrTo(structType)
	for _, ann := range annotations {
		method, ok := ptrType.MethodByName(ann.Method)
		if !ok {
			return nil, &InvalidRegistrationError{
				Type:   def.Type,
				Reason: fmt.Sprintf("标注的方法 %s 不存在", ann.Method),
			}
		}

		fnType := method.Type
		paramTypes := make([]reflect.Type, 0, fnType.NumIn()-1)
		for i := 1; i < fnType.NumIn(); i++ {
			paramTypes = append(paramTypes, fnType.In(i))
		}

		desc := &MemberDescriptor{
			Declaring:  structType,
			Kind:       KindMethod,
			MethodName: ann.Method,
			ParamTypes: paramTypes,
			Attr:       parseAttribute(ann.Tag),
		}
		if len(paramTypes) > 0 {
			desc.ValueType = paramTypes[0]
		}
		if seen[desc.identity()] {
			continue
		}

		factory, ok := s.registry.match(desc.Attr)
		if !ok {
			continue
		}
		desc.factory = &factory

		seen[desc.identity()] = true
		out = append(out, desc)
	}
	return out, nil
}

// ---------------- 构造参数选择器 ----------------

type ctorSelector struct{}

func (s *ctorSelector) Kind() MemberKind { return KindCtorParam }

func (s *ctorSelector) Select(def *ServiceDefinition) ([]*MemberDescriptor, error) {
	if def.IsValue {
		if err := rejectIncompatible(def, KindCtorParam); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if def.Impl == nil || reflect.TypeOf(def.Impl).Kind() != reflect.Func {
		// 结构体注入模式没有构造参数
		if err := rejectIncompatible(def, KindCtorParam); err != nil {
			return nil, err
		}
		return nil, nil
	}

	seen := make(map[string]bool)
	out, err := explicitMembers(def, KindCtorParam, seen)
	if err != nil {
		return nil, err
	}

	// Go 的函数参数没有属性，未被显式绑定覆盖的参数一律按类型必选解析
	fnType := reflect.TypeOf(def.Impl)
	for i := 0; i < fnType.NumIn(); i++ {
		desc := &MemberDescriptor{
			Declaring:  fnType,
			Kind:       KindCtorParam,
			ParamIndex: i,
			ValueType:  fnType.In(i),
		}
		if seen[desc.identity()] {
			continue
		}
		seen[desc.identity()] = true
		out = append(out, desc)
	}
	return out, nil
}
