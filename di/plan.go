package di

import (
	"fmt"
)

// resolutionPlan 一个 (类型, 注册) 对的解析计划
// 步骤顺序即选择顺序：构造参数在前，随后是字段与方法步骤；
// 同一选择器内，显式绑定在前，属性发现按声明顺序。
// 计划构建是纯函数且无副作用；种子结果为空的检查发生在执行时。
type resolutionPlan struct {
	// ctor 构造参数描述符，由种子解析器消费
	ctor []*MemberDescriptor

	// ctorSrc 构造参数的值来源，与 ctor 一一对应
	ctorSrc []valueSource

	// members 字段与方法成员描述符（计划顺序）
	members []*MemberDescriptor

	// steps 预编译步骤（直接执行路径），与 members 一一对应
	steps []ResolutionStep
}

// buildPlan 为注册构建解析计划
// registry 的快照在选择时被固定到描述符上，同一快照重建得到等价计划。
func buildPlan(def *ServiceDefinition, registry *FactoryRegistry) (*resolutionPlan, error) {
	plan := &resolutionPlan{}

	for _, selector := range selectorsFor(def, registry) {
		members, err := selector.Select(def)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if m.Kind == KindCtorParam {
				plan.ctor = append(plan.ctor, m)
				continue
			}
			step, err := compileMember(m)
			if err != nil {
				return nil, err
			}
			plan.members = append(plan.members, m)
			plan.steps = append(plan.steps, step)
		}
	}

	var err error
	plan.ctorSrc, err = ctorSources(plan.ctor)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// run 依计划顺序执行全部成员步骤
// 快速失败：第一个失败的必选步骤中止整次解析，已赋值的成员不回滚。
func (p *resolutionPlan) run(ctx *BuildContext) error {
	for _, step := range p.steps {
		if err := step.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}

// expressions 从计划成员构建可分析的表达式片段
// 与预编译步骤读取相同的描述符数据，行为一致。
func (p *resolutionPlan) expressions() ([]*ExpressionStep, error) {
	steps := make([]*ExpressionStep, 0, len(p.members))
	for _, m := range p.members {
		step, err := buildExpression(m)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// memberSources 计算成员每个注入位置的值来源
// 优先级：显式绑定的覆盖数据 → 属性工厂 → 按类型默认解析。
func memberSources(m *MemberDescriptor) ([]valueSource, error) {
	// 显式绑定
	if len(m.Sources) > 0 {
		sources := make([]valueSource, len(m.Sources))
		for i, raw := range m.Sources {
			valueType := m.ValueType
			if m.Kind == KindMethod {
				valueType = m.ParamTypes[i]
			}
			src, err := sourceFor(raw, valueType)
			if err != nil {
				return nil, err
			}
			sources[i] = src
		}
		return sources, nil
	}

	// 属性发现：命中的工厂为每个注入位置构建解析操作
	if m.Attr != nil && m.factory != nil {
		if m.Kind == KindField {
			defVal, err := defaultValueFor(m.Attr, m.ValueType)
			if err != nil {
				return nil, err
			}
			return []valueSource{resolverSource{fn: m.factory.Build(m.Attr, m, defVal)}}, nil
		}
		sources := make([]valueSource, len(m.ParamTypes))
		for i, paramType := range m.ParamTypes {
			param := *m
			param.ValueType = paramType
			defVal, err := defaultValueFor(m.Attr, paramType)
			if err != nil {
				return nil, err
			}
			sources[i] = resolverSource{fn: m.factory.Build(m.Attr, &param, defVal)}
		}
		return sources, nil
	}

	// 默认：按声明类型必选解析
	switch m.Kind {
	case KindMethod:
		sources := make([]valueSource, len(m.ParamTypes))
		for i, paramType := range m.ParamTypes {
			sources[i] = resolveSource{typ: paramType}
		}
		return sources, nil
	default:
		return []valueSource{resolveSource{typ: m.ValueType}}, nil
	}
}

// buildExpression 表达式构建器：成员 → 可分析的表达式片段
func buildExpression(m *MemberDescriptor) (*ExpressionStep, error) {
	sources, err := memberSources(m)
	if err != nil {
		return nil, err
	}
	return &ExpressionStep{member: m, sources: sources}, nil
}

// compileMember 解析器编译器：成员 → 直接可调用的预编译步骤
// 不经过表达式中间表示，适用于无需整体分析/缓存的直接执行路径。
func compileMember(m *MemberDescriptor) (*CompiledStep, error) {
	sources, err := memberSources(m)
	if err != nil {
		return nil, err
	}
	resolvers := make([]ValueResolver, len(sources))
	for i, src := range sources {
		resolvers[i] = src.resolveValue
	}
	member := m
	return &CompiledStep{
		member: member,
		fn: func(ctx *BuildContext) error {
			vals := make([]any, len(resolvers))
			for i, resolve := range resolvers {
				val, err := resolve(ctx)
				if err != nil {
					return err
				}
				vals[i] = val
			}
			return writeMember(ctx.Existing, member, vals)
		},
	}, nil
}

// ctorSources 构造参数的值来源（种子解析器消费）
func ctorSources(params []*MemberDescriptor) ([]valueSource, error) {
	sources := make([]valueSource, len(params))
	for i, p := range params {
		if p.ParamIndex != i {
			return nil, fmt.Errorf("di: 构造参数顺序异常: 位置 %d 得到参数 %d", i, p.ParamIndex)
		}
		if len(p.Sources) > 0 {
			src, err := sourceFor(p.Sources[0], p.ValueType)
			if err != nil {
				return nil, err
			}
			sources[i] = src
			continue
		}
		sources[i] = resolveSource{typ: p.ValueType}
	}
	return sources, nil
}
