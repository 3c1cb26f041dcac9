package di_test

import (
	"testing"

	"github.com/gocrud/inject/di"
)

// 自定义标记工厂：从配置表取值注入
func TestCustomAttributeFactory(t *testing.T) {
	settings := map[string]string{
		"app.name": "orders",
		"app.env":  "prod",
	}

	type appInfo struct {
		Name string `di:"app.name,setting"`
		Env  string `di:"app.env,setting"`
	}

	c := di.NewContainer()
	di.AddFactories(c, di.AttributeFactory{
		Marker: "setting",
		Match:  func(attr *di.Attribute) bool { return attrHasMarker(attr, "setting") },
		NameOf: func(attr *di.Attribute) string { return "" },
		Build: func(attr *di.Attribute, m *di.MemberDescriptor, def any) di.ValueResolver {
			key := attr.Name
			return func(ctx *di.BuildContext) (any, error) {
				return settings[key], nil
			}
		},
	})
	di.Register[*appInfo](c)

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	got, err := di.Resolve[*appInfo](c)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "orders" || got.Env != "prod" {
		t.Errorf("Expected settings injected, got %+v", got)
	}
}

// 注册自定义工厂后，内建的必选/可选工厂仍正常认领无标记成员
func TestBuiltinFactoriesUnaffected(t *testing.T) {
	type mixed struct {
		Svc  *ServiceA `di:""`
		Port int       `di:",optional,default=8080"`
		Tag  string    `di:",custom"`
	}

	c := di.NewContainer()
	di.AddFactories(c, di.AttributeFactory{
		Marker: "custom",
		Match:  func(attr *di.Attribute) bool { return attrHasMarker(attr, "custom") },
		NameOf: func(attr *di.Attribute) string { return "" },
		Build: func(attr *di.Attribute, m *di.MemberDescriptor, def any) di.ValueResolver {
			return func(ctx *di.BuildContext) (any, error) { return "custom-value", nil }
		},
	})
	di.Register[*ServiceA](c, di.WithValue(&ServiceA{Val: 5}))
	di.Register[*mixed](c)

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	got, err := di.Resolve[*mixed](c)
	if err != nil {
		t.Fatal(err)
	}
	if got.Svc == nil || got.Svc.Val != 5 {
		t.Errorf("Required member should still resolve, got %+v", got.Svc)
	}
	if got.Port != 8080 {
		t.Errorf("Optional default should still apply, got %d", got.Port)
	}
	if got.Tag != "custom-value" {
		t.Errorf("Custom factory should claim its marker, got %q", got.Tag)
	}
}

// 工厂表对已有快照只追加不改动：追加工厂不影响已构建的计划
func TestFactoryRegistryAppendOnly(t *testing.T) {
	registry := di.NewFactoryRegistry()
	engine := di.NewEngine(registry)

	type tagged struct {
		Val string `di:",late"`
	}
	def := &di.ServiceDefinition{
		Type:     di.TypeOf[*tagged](),
		ImplType: di.TypeOf[*tagged](),
	}

	// 此时没有工厂认领 late 标记，成员被跳过
	steps, err := engine.GetExpressions(def)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 0 {
		t.Fatalf("Expected unclaimed member to be skipped, got %d steps", len(steps))
	}

	registry.Register(di.AttributeFactory{
		Marker: "late",
		Match:  func(attr *di.Attribute) bool { return attrHasMarker(attr, "late") },
		NameOf: func(attr *di.Attribute) string { return "" },
		Build: func(attr *di.Attribute, m *di.MemberDescriptor, d any) di.ValueResolver {
			return func(ctx *di.BuildContext) (any, error) { return "late", nil }
		},
	})

	// 已缓存的计划不受追加影响
	again, err := engine.GetExpressions(def)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Error("Cached plan must not observe factories registered afterwards")
	}

	// 新注册走新快照
	fresh := &di.ServiceDefinition{
		Type:     di.TypeOf[*tagged](),
		ImplType: di.TypeOf[*tagged](),
	}
	steps, err = engine.GetExpressions(fresh)
	if err != nil {
		t.Fatal(err)
	}
	if len(steps) != 1 {
		t.Fatalf("Expected new factory to claim the member, got %d steps", len(steps))
	}
}
