package di_test

import (
	"errors"
	"testing"

	"github.com/gocrud/inject/di"
)

type needsDep struct {
	Dep *ServiceA `di:""`
}

// 种子返回空实例时直接短路，不执行任何成员步骤
func TestResolverSeedShortCircuit(t *testing.T) {
	c := di.NewContainer() // 故意不注册 ServiceA
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	def := &di.ServiceDefinition{
		Type:     di.TypeOf[*needsDep](),
		ImplType: di.TypeOf[*needsDep](),
	}
	engine := c.Engine()

	// 若成员步骤被执行，Dep 的解析必然失败
	seed := func(ctx *di.BuildContext) (any, error) { return (*needsDep)(nil), nil }
	resolver := engine.GetResolver(def, seed)

	ctx := di.NewBuildContext(c, di.TypeOf[*needsDep](), "")
	inst, err := resolver(ctx)
	if err != nil {
		t.Fatalf("Expected nil seed to short-circuit without error, got %v", err)
	}
	if inst != (*needsDep)(nil) {
		t.Errorf("Expected seed result passed through, got %v", inst)
	}
}

// 种子失败时立即返回该错误
func TestResolverSeedError(t *testing.T) {
	c := di.NewContainer()
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	def := &di.ServiceDefinition{
		Type:     di.TypeOf[*needsDep](),
		ImplType: di.TypeOf[*needsDep](),
	}
	seedErr := errors.New("seed boom")
	resolver := c.Engine().GetResolver(def, func(ctx *di.BuildContext) (any, error) {
		return nil, seedErr
	})

	ctx := di.NewBuildContext(c, di.TypeOf[*needsDep](), "")
	if _, err := resolver(ctx); !errors.Is(err, seedErr) {
		t.Errorf("Expected seed error to propagate, got %v", err)
	}
}

// 步骤失败立即中止，后续成员不再执行
func TestFailFast(t *testing.T) {
	type twoFields struct {
		Missing *ServiceA `di:""`
		Traced  string    `di:",trace"`
	}

	traced := false
	c := di.NewContainer()
	di.AddFactories(c, di.AttributeFactory{
		Marker: "trace",
		Match:  func(attr *di.Attribute) bool { return attrHasMarker(attr, "trace") },
		NameOf: func(attr *di.Attribute) string { return attr.Name },
		Build: func(attr *di.Attribute, m *di.MemberDescriptor, def any) di.ValueResolver {
			return func(ctx *di.BuildContext) (any, error) {
				traced = true
				return "traced", nil
			}
		},
	})
	di.Register[*twoFields](c, di.WithTransient())
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	_, err := di.Resolve[*twoFields](c)
	if err == nil {
		t.Fatal("Expected resolution to fail on the missing dependency")
	}
	var missing *di.MissingDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingDependencyError, got %v", err)
	}
	if traced {
		t.Error("Step after the failing one must not execute")
	}
}

// 表达式路径（批量编译）与解析器路径产出相同结果
func TestExpressionsEquivalence(t *testing.T) {
	c := di.NewContainer()
	di.Register[*ServiceA](c, di.WithValue(&ServiceA{Val: 7}))
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	def := &di.ServiceDefinition{
		Type:     di.TypeOf[*needsDep](),
		ImplType: di.TypeOf[*needsDep](),
	}
	engine := c.Engine()

	// 路径一：表达式 + 整体编译
	steps, err := engine.GetExpressions(def)
	if err != nil {
		t.Fatal(err)
	}
	compiled := di.CompilePlan(steps)

	viaCompile := &needsDep{}
	ctx := di.NewBuildContext(c, di.TypeOf[*needsDep](), "")
	ctx.Existing = viaCompile
	if err := compiled(ctx); err != nil {
		t.Fatal(err)
	}

	// 路径二：组合解析器
	resolver := engine.GetResolver(def, func(ctx *di.BuildContext) (any, error) {
		return &needsDep{}, nil
	})
	ctx2 := di.NewBuildContext(c, di.TypeOf[*needsDep](), "")
	out, err := resolver(ctx2)
	if err != nil {
		t.Fatal(err)
	}
	viaResolver := out.(*needsDep)

	if viaCompile.Dep == nil || viaResolver.Dep == nil {
		t.Fatal("Both paths must inject the dependency")
	}
	if viaCompile.Dep != viaResolver.Dep {
		t.Error("Both paths must resolve the same singleton instance")
	}
	if viaCompile.Dep.Val != 7 {
		t.Errorf("Unexpected injected value: %d", viaCompile.Dep.Val)
	}
}

// 单步解释执行与编译执行等价
func TestStepCompileEquivalence(t *testing.T) {
	c := di.NewContainer()
	di.Register[*ServiceA](c, di.WithValue(&ServiceA{Val: 3}))
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	def := &di.ServiceDefinition{
		Type:     di.TypeOf[*needsDep](),
		ImplType: di.TypeOf[*needsDep](),
	}
	steps, err := c.Engine().GetExpressions(def)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 1 {
		t.Fatalf("Expected one step, got %d", len(steps))
	}

	interp := &needsDep{}
	ctx := di.NewBuildContext(c, di.TypeOf[*needsDep](), "")
	ctx.Existing = interp
	if err := steps[0].Run(ctx); err != nil {
		t.Fatal(err)
	}

	comp := &needsDep{}
	ctx2 := di.NewBuildContext(c, di.TypeOf[*needsDep](), "")
	ctx2.Existing = comp
	if err := steps[0].Compile().Run(ctx2); err != nil {
		t.Fatal(err)
	}

	if interp.Dep != comp.Dep {
		t.Error("Interpreted and compiled step must produce the same result")
	}
}

// 同一注册的计划只构建一次，重复获取产出一致的成员序列
func TestPlanCachedPerRegistration(t *testing.T) {
	c := di.NewContainer()
	di.Register[*ServiceA](c, di.WithValue(&ServiceA{Val: 1}))
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	def := &di.ServiceDefinition{
		Type:     di.TypeOf[*needsDep](),
		ImplType: di.TypeOf[*needsDep](),
	}
	engine := c.Engine()

	first, err := engine.GetExpressions(def)
	if err != nil {
		t.Fatal(err)
	}
	second, err := engine.GetExpressions(def)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("Step counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Descriptor() != second[i].Descriptor() {
			t.Errorf("step %d: descriptors must come from the same cached plan", i)
		}
	}
}
