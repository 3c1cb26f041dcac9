package di_test

import (
	"errors"
	"testing"

	"github.com/gocrud/inject/di"
)

type plainStruct struct {
	Data  string
	Count int
}

type taggedStruct struct {
	Dep   *ServiceA `di:""`
	Other string
}

// 没有任何注入成员的类型产出空计划
func TestSelectNoMembers(t *testing.T) {
	engine := di.NewEngine(di.NewFactoryRegistry())
	def := &di.ServiceDefinition{
		Type:     di.TypeOf[*plainStruct](),
		ImplType: di.TypeOf[*plainStruct](),
	}

	steps, err := engine.GetExpressions(def)
	if err != nil {
		t.Fatalf("GetExpressions failed: %v", err)
	}
	if len(steps) != 0 {
		t.Errorf("Expected no steps for type without injection members, got %d", len(steps))
	}
}

// 字段按声明顺序被发现
func TestSelectDeclarationOrder(t *testing.T) {
	type multi struct {
		First  *ServiceA `di:""`
		Second *ServiceC `di:",optional"`
		Third  string    `di:",optional,default=x"`
	}

	engine := di.NewEngine(di.NewFactoryRegistry())
	def := &di.ServiceDefinition{
		Type:     di.TypeOf[*multi](),
		ImplType: di.TypeOf[*multi](),
	}

	steps, err := engine.GetExpressions(def)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(steps))
	}
	want := []string{"First", "Second", "Third"}
	for i, step := range steps {
		if step.Descriptor().FieldName != want[i] {
			t.Errorf("step %d: expected field %s, got %s", i, want[i], step.Descriptor().FieldName)
		}
	}
}

// 多个工厂命中同一成员时，只有注册顺序靠前的一个生效
func TestFirstFactoryWins(t *testing.T) {
	type marked struct {
		Val string `di:",alpha,beta"`
	}

	fired := make([]string, 0, 2)
	markerFactory := func(id string) di.AttributeFactory {
		return di.AttributeFactory{
			Marker: id,
			Match:  func(attr *di.Attribute) bool { return attrHasMarker(attr, id) },
			NameOf: func(attr *di.Attribute) string { return attr.Name },
			Build: func(attr *di.Attribute, m *di.MemberDescriptor, def any) di.ValueResolver {
				return func(ctx *di.BuildContext) (any, error) {
					fired = append(fired, id)
					return "from-" + id, nil
				}
			},
		}
	}

	c := di.NewContainer()
	di.AddFactories(c, markerFactory("alpha"), markerFactory("beta"))
	di.Register[*marked](c)

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got, err := di.Resolve[*marked](c)
	if err != nil {
		t.Fatal(err)
	}
	if got.Val != "from-alpha" {
		t.Errorf("Expected first registered factory to win, got %q", got.Val)
	}
	if len(fired) != 1 || fired[0] != "alpha" {
		t.Errorf("Expected exactly one factory to fire (alpha), fired: %v", fired)
	}
}

// 显式绑定优先于属性发现，且同一成员不会产生重复步骤
func TestExplicitMemberPrecedence(t *testing.T) {
	engine := di.NewEngine(di.NewFactoryRegistry())
	def := &di.ServiceDefinition{
		Type:     di.TypeOf[*taggedStruct](),
		ImplType: di.TypeOf[*taggedStruct](),
		Members:  []di.InjectionMember{di.FieldMember{Field: "Dep", Source: &ServiceA{Val: 42}}},
	}

	steps, err := engine.GetExpressions(def)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 1 {
		t.Fatalf("Expected exactly one step for member with explicit override, got %d", len(steps))
	}
	if steps[0].Descriptor().FieldName != "Dep" {
		t.Errorf("Unexpected member: %v", steps[0].Descriptor())
	}
	// 显式绑定的描述符不携带属性
	if steps[0].Descriptor().Attr != nil {
		t.Error("Explicit member should not carry a discovered attribute")
	}
}

// 端到端验证显式绑定覆盖标签发现
func TestExplicitOverrideWins(t *testing.T) {
	c := di.NewContainer()
	di.Register[*ServiceA](c, di.WithValue(&ServiceA{Val: 1}))
	override := &ServiceA{Val: 99}
	di.Register[*taggedStruct](c, di.WithField("Dep", override))

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	got, err := di.Resolve[*taggedStruct](c)
	if err != nil {
		t.Fatal(err)
	}
	if got.Dep != override {
		t.Errorf("Expected explicit override instance, got %+v", got.Dep)
	}
}

// 无效的显式绑定在计划构建时报错（Build 即失败）
func TestInvalidInjectionMember(t *testing.T) {
	c := di.NewContainer()
	di.Register[*taggedStruct](c, di.WithField("Nope", 1))

	err := c.Build()
	if err == nil {
		t.Fatal("Expected Build to fail for unknown field binding")
	}
}

// 字段绑定到非结构体注册：计划构建期报错，不得被静默丢弃
func TestFieldBindingOnNonStruct(t *testing.T) {
	c := di.NewContainer()
	di.Register[string](c, di.WithValue("hello"), di.WithInjectFields(), di.WithField("Nope", 1))

	err := c.Build()
	if err == nil {
		t.Fatal("Expected Build to fail for field binding on a non-struct registration")
	}
	var invalid *di.InvalidRegistrationError
	if !errors.As(err, &invalid) {
		t.Errorf("Expected InvalidRegistrationError, got %v", err)
	}
}

// 构造参数绑定到结构体注入模式（没有构造函数）：同样立即报错
func TestCtorArgsWithoutConstructor(t *testing.T) {
	c := di.NewContainer()
	di.Register[*plainStruct](c, di.WithCtorArgs(1, 2, 3))

	err := c.Build()
	if err == nil {
		t.Fatal("Expected Build to fail for ctor binding without a constructor")
	}
	var invalid *di.InvalidRegistrationError
	if !errors.As(err, &invalid) {
		t.Errorf("Expected InvalidRegistrationError, got %v", err)
	}
}

// 构造参数绑定到预构建值注册也不能生成计划
func TestCtorArgsOnValueRegistration(t *testing.T) {
	c := di.NewContainer()
	di.Register[*plainStruct](c, di.WithValue(&plainStruct{}), di.WithInjectFields(), di.WithCtorArgs(1))

	err := c.Build()
	if err == nil {
		t.Fatal("Expected Build to fail for ctor binding on a value registration")
	}
	var invalid *di.InvalidRegistrationError
	if !errors.As(err, &invalid) {
		t.Errorf("Expected InvalidRegistrationError, got %v", err)
	}
}

func attrHasMarker(attr *di.Attribute, id string) bool {
	for _, m := range attr.Markers {
		if m == id {
			return true
		}
	}
	return false
}
