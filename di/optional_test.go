package di_test

import (
	"testing"

	"github.com/gocrud/inject/di"
)

type OptLogger interface {
	Log(msg string)
}

type OptConsoleLogger struct {
	Name string
}

func (l *OptConsoleLogger) Log(msg string) {}

type OptCache interface {
	Get(key string) string
}

// 测试可选字段注入
func TestOptionalFieldInjection(t *testing.T) {
	type Service struct {
		Logger OptLogger `di:""`  // 必需
		Cache  OptCache  `di:"?"` // 可选
	}

	c := di.NewContainer()

	// 只注册 Logger，不注册 Cache
	di.Register[OptLogger](c, di.WithValue(&OptConsoleLogger{Name: "test"}))
	di.Register[*Service](c)

	// 构建应该成功（Cache 是可选的）
	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	svc, err := di.Resolve[*Service](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if svc.Logger == nil {
		t.Error("Expected Logger to be injected")
	}
	if svc.Cache != nil {
		t.Error("Expected Cache to be nil (optional and not registered)")
	}
}

// 测试可选依赖的 default= 字面量
func TestOptionalDefaultLiteral(t *testing.T) {
	type Service struct {
		Port    int    `di:",optional,default=8080"`
		Host    string `di:",optional,default=localhost"`
		Verbose bool   `di:",optional,default=true"`
	}

	c := di.NewContainer()
	di.Register[*Service](c)

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	svc, err := di.Resolve[*Service](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if svc.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", svc.Port)
	}
	if svc.Host != "localhost" {
		t.Errorf("Expected default host, got %q", svc.Host)
	}
	if !svc.Verbose {
		t.Error("Expected default verbose true")
	}
}

// 测试注册存在时可选依赖正常注入
func TestOptionalPrefersRegistration(t *testing.T) {
	type Service struct {
		Port int `di:"port,optional,default=8080"`
	}

	c := di.NewContainer()
	di.Register[int](c, di.WithName("port"), di.WithValue(9090))
	di.Register[*Service](c)

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	svc, _ := di.Resolve[*Service](c)
	if svc.Port != 9090 {
		t.Errorf("Expected registered value 9090, got %d", svc.Port)
	}
}

// 测试必需字段未注册应该失败
func TestRequiredFieldInjection_Failure(t *testing.T) {
	type Service struct {
		Logger OptLogger `di:""`
		Cache  OptCache  `di:""`
	}

	c := di.NewContainer()
	di.Register[OptLogger](c, di.WithValue(&OptConsoleLogger{}))
	di.Register[*Service](c)

	// 构建应该失败（Cache 是必需的但未注册，单例急切初始化）
	if err := c.Build(); err == nil {
		t.Fatal("Expected Build to fail when required dependency is missing")
	}
}

// 循环依赖必须穿透可选依赖传播，不能被默认值吞掉
type cycleA struct {
	B *cycleB `di:",optional"`
}

type cycleB struct {
	A *cycleA
}

func TestCircularPropagatesThroughOptional(t *testing.T) {
	c := di.NewContainer()

	// A 的可选字段依赖 B；B 的构造函数依赖 A。
	// 可选边不进入静态图，环只能在运行时被检出。
	di.Register[*cycleA](c, di.WithTransient())
	di.Register[*cycleB](c, di.WithTransient(), di.WithFactory(func(a *cycleA) *cycleB {
		return &cycleB{A: a}
	}))

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_, err := di.Resolve[*cycleA](c)
	if err == nil {
		t.Fatal("Expected circular dependency to propagate through optional member")
	}
	if !di.IsCircular(err) {
		t.Errorf("Expected circular dependency error, got %v", err)
	}
}

// 非循环失败被可选步骤吞掉，循环失败不会 —— 对照用例
func TestOptionalSwallowsOnlyNonCircular(t *testing.T) {
	type Service struct {
		Cache OptCache `di:",optional"`
	}

	c := di.NewContainer()
	di.Register[*Service](c, di.WithTransient())

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// 缺失注册是普通失败：可选字段回退为 nil，解析成功
	svc, err := di.Resolve[*Service](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if svc.Cache != nil {
		t.Error("Expected optional field to fall back to nil")
	}
}
