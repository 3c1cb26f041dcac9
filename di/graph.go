package di

import (
	"fmt"
)

// graphBuilder 处理依赖图的构建和验证。
// 静态图只覆盖注册期可见的依赖（必选解析来源），
// 工厂闭包内部产生的递归解析由 BuildContext 在运行时检出。
type graphBuilder struct {
	definitions map[ServiceKey]*ServiceDefinition
	engine      *Engine
}

func newGraphBuilder(defs map[ServiceKey]*ServiceDefinition, engine *Engine) *graphBuilder {
	return &graphBuilder{
		definitions: defs,
		engine:      engine,
	}
}

// buildOrder 返回单例的最佳构建顺序并验证图。
func (g *graphBuilder) buildOrder() ([]ServiceKey, error) {
	dependencies := make(map[ServiceKey][]ServiceKey)

	// 1. 提取所有服务的依赖关系
	for key, def := range g.definitions {
		deps, err := g.inspectDependencies(def)
		if err != nil {
			return nil, fmt.Errorf("检查 %v (name=%s) 的依赖失败: %w", key.Type, key.Name, err)
		}
		dependencies[key] = deps
	}

	// 2. 拓扑排序 (基于 DFS)
	visited := make(map[ServiceKey]bool)
	recursionStack := make(map[ServiceKey]bool)
	var order []ServiceKey
	var chain []ServiceKey

	var visit func(ServiceKey) error
	visit = func(u ServiceKey) error {
		visited[u] = true
		recursionStack[u] = true
		chain = append(chain, u)

		for _, v := range dependencies[u] {
			// 未注册的依赖不在此检查（运行时会报缺失依赖错误）
			if _, exists := g.definitions[v]; !exists {
				continue
			}

			if !visited[v] {
				if err := visit(v); err != nil {
					return err
				}
			} else if recursionStack[v] {
				cycle := make([]ServiceKey, len(chain), len(chain)+1)
				copy(cycle, chain)
				cycle = append(cycle, v)
				return &CircularDependencyError{Chain: cycle}
			}
		}

		recursionStack[u] = false
		chain = chain[:len(chain)-1]
		order = append(order, u)
		return nil
	}

	for key := range g.definitions {
		if !visited[key] {
			chain = chain[:0]
			if err := visit(key); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// inspectDependencies 返回服务依赖的服务键列表。
// 依赖从解析计划的成员描述符中提取；可选依赖不进入图。
func (g *graphBuilder) inspectDependencies(def *ServiceDefinition) ([]ServiceKey, error) {
	// 值 - 无依赖（除非开启了成员注入）
	if def.IsValue && !def.InjectFields {
		return nil, nil
	}

	plan, err := g.engine.planFor(def)
	if err != nil {
		return nil, err
	}

	var deps []ServiceKey
	for _, p := range plan.ctor {
		deps = append(deps, memberDependencies(p)...)
	}
	for _, m := range plan.members {
		deps = append(deps, memberDependencies(m)...)
	}
	return deps, nil
}

// memberDependencies 提取单个成员的静态依赖键
func memberDependencies(m *MemberDescriptor) []ServiceKey {
	// 显式绑定：只有按容器解析的来源构成图边
	if len(m.Sources) > 0 {
		var deps []ServiceKey
		for i, raw := range m.Sources {
			valueType := m.ValueType
			if m.Kind == KindMethod {
				valueType = m.ParamTypes[i]
			}
			switch v := raw.(type) {
			case nil, autoMarker:
				deps = append(deps, ServiceKey{Type: valueType})
			case namedMarker:
				deps = append(deps, ServiceKey{Type: valueType, Name: v.name})
			case tokenInterface:
				deps = append(deps, ServiceKey{Type: v.Type(), Name: v.Name()})
			}
			// 字面量、工厂与解析策略闭包不产生静态边
		}
		return deps
	}

	// 属性发现：可选依赖不强制进入图
	if m.Attr != nil {
		if m.Attr.Optional {
			return nil
		}
		name := m.Attr.Name
		if m.factory != nil && m.factory.NameOf != nil {
			name = m.factory.NameOf(m.Attr)
		}
		if m.Kind == KindMethod {
			deps := make([]ServiceKey, 0, len(m.ParamTypes))
			for _, paramType := range m.ParamTypes {
				deps = append(deps, ServiceKey{Type: paramType, Name: name})
			}
			return deps
		}
		return []ServiceKey{{Type: m.ValueType, Name: name}}
	}

	// 默认按类型必选解析
	if m.Kind == KindMethod {
		deps := make([]ServiceKey, 0, len(m.ParamTypes))
		for _, paramType := range m.ParamTypes {
			deps = append(deps, ServiceKey{Type: paramType})
		}
		return deps
	}
	return []ServiceKey{{Type: m.ValueType}}
}
