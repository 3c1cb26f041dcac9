package di

import (
	"fmt"
	"reflect"
)

// Engine 成员注入执行引擎
// 对外暴露两条等价路径：
//   - GetExpressions 产出可分析的表达式片段，供外部整体编译器批量编译缓存
//   - GetResolver    产出可直接执行的组合解析器（解释/回退路径）
//
// 引擎自身不加锁：计划经注册上的 planOnce 缓存，构建后只读，
// 不同构建上下文的并发解析互不干扰。
type Engine struct {
	registry *FactoryRegistry
}

// NewEngine 创建执行引擎
func NewEngine(registry *FactoryRegistry) *Engine {
	return &Engine{registry: registry}
}

// Registry 返回引擎的属性工厂表
// 容器扩展通过它在运行时追加工厂。
func (e *Engine) Registry() *FactoryRegistry {
	return e.registry
}

// planFor 返回注册的解析计划（每个注册最多构建一次）
func (e *Engine) planFor(def *ServiceDefinition) (*resolutionPlan, error) {
	def.planOnce.Do(func() {
		def.plan, def.planErr = buildPlan(def, e.registry)
	})
	return def.plan, def.planErr
}

// GetExpressions 返回注册的可分析表达式片段序列
// 供外部的整体对象编译器合并多个处理器的输出。
func (e *Engine) GetExpressions(def *ServiceDefinition) ([]*ExpressionStep, error) {
	plan, err := e.planFor(def)
	if err != nil {
		return nil, err
	}
	return plan.expressions()
}

// GetResolver 组合种子解析器与成员步骤
// 先执行 seed 获得基础实例；种子结果为空或失败时立即短路返回，
// 不执行任何成员步骤（不能向不存在的对象注入）。
// 否则按计划顺序执行全部步骤，原地修改实例并返回。
func (e *Engine) GetResolver(def *ServiceDefinition, seed Resolver) Resolver {
	return func(ctx *BuildContext) (any, error) {
		inst, err := seed(ctx)
		if err != nil || isEmpty(inst) {
			return inst, err
		}

		plan, err := e.planFor(def)
		if err != nil {
			return nil, err
		}

		ctx.Existing = inst
		if err := plan.run(ctx); err != nil {
			return nil, err
		}
		return ctx.Existing, nil
	}
}

// isEmpty 判断种子结果是否为空（nil 或带类型的 nil 指针/接口）
func isEmpty(inst any) bool {
	if inst == nil {
		return true
	}
	val := reflect.ValueOf(inst)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return val.IsNil()
	}
	return false
}

// createInstance 创建 def 描述的服务的新实例
// 种子（值 / 工厂 / 结构体构造）+ 成员注入计划。
func (e *Engine) createInstance(ctx *BuildContext, def *ServiceDefinition) (any, error) {
	// 预构建的值不经过成员注入，除非显式开启
	if def.IsValue && !def.InjectFields {
		return def.Impl, nil
	}

	restore := ctx.enter(def.key())
	defer restore()

	resolver := e.GetResolver(def, e.seedFor(def))
	inst, err := resolver(ctx)
	if err != nil {
		return nil, err
	}

	// 值类型注册：注入发生在可寻址的指针上，返回前解引用
	if inst != nil && def.ImplType != nil && def.ImplType.Kind() == reflect.Struct {
		val := reflect.ValueOf(inst)
		if val.Kind() == reflect.Ptr && val.Type().Elem() == def.ImplType {
			return val.Elem().Interface(), nil
		}
	}
	return inst, nil
}

// seedFor 构建种子解析器：获取或构造基础实例
func (e *Engine) seedFor(def *ServiceDefinition) Resolver {
	// 预构建的值
	if def.IsValue {
		return func(ctx *BuildContext) (any, error) {
			return def.Impl, nil
		}
	}

	// 工厂 / 构造函数
	if def.Impl != nil && reflect.TypeOf(def.Impl).Kind() == reflect.Func {
		invoker := createInvoker(def.Impl)
		return func(ctx *BuildContext) (any, error) {
			plan, err := e.planFor(def)
			if err != nil {
				return nil, err
			}
			args := make([]reflect.Value, len(plan.ctorSrc))
			for i, src := range plan.ctorSrc {
				val, err := src.resolveValue(ctx)
				if err != nil {
					return nil, fmt.Errorf("di: 参数 %d: %w", i, err)
				}
				args[i] = toValue(val, plan.ctor[i].ValueType)
			}
			return invoker(args)
		}
	}

	// 结构体注入模式：实例化结构体，成员由计划填充
	return func(ctx *BuildContext) (any, error) {
		implType := def.ImplType
		if implType == nil {
			implType = def.Type
		}
		if implType.Kind() == reflect.Ptr {
			return reflect.New(implType.Elem()).Interface(), nil
		}
		if implType.Kind() == reflect.Struct {
			return reflect.New(implType).Interface(), nil
		}
		return nil, &InvalidRegistrationError{
			Type:   def.Type,
			Reason: fmt.Sprintf("无法实例化 %v：需要结构体、结构体指针或工厂", implType),
		}
	}
}
