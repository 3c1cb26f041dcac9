package di_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/gocrud/inject/di"
)

type ServiceA struct {
	Val int
}

type ServiceB struct {
	A *ServiceA `di:""`
}

type InterfaceC interface {
	Do() string
}

type ServiceC struct{}

func (s *ServiceC) Do() string { return "C" }

// AutoServiceA 用于测试构造函数注册
type AutoServiceA struct {
	Val string
}

func NewAutoServiceA() *AutoServiceA {
	return &AutoServiceA{Val: "auto-A"}
}

// AutoServiceB 用于测试带依赖的构造函数
type AutoServiceB struct {
	A *AutoServiceA
}

func NewAutoServiceB(a *AutoServiceA) *AutoServiceB {
	return &AutoServiceB{A: a}
}

func TestDI(t *testing.T) {
	c := di.NewContainer()

	// Register Value
	di.Register[int](c, di.WithValue(100))

	// Register Singleton
	di.Register[*ServiceA](c, di.WithFactory(func(val int) *ServiceA {
		return &ServiceA{Val: val}
	}))

	// Register Transient struct with field injection
	di.Register[*ServiceB](c, di.WithTransient())

	// Register Interface
	di.Register[InterfaceC](c, di.Use[*ServiceC]())

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	b, err := di.Resolve[*ServiceB](c)
	if err != nil {
		t.Fatalf("Resolve B failed: %v", err)
	}
	if b.A == nil || b.A.Val != 100 {
		t.Errorf("Expected B.A.Val == 100, got %+v", b.A)
	}

	// Transient: 每次都是新实例
	b2, _ := di.Resolve[*ServiceB](c)
	if b == b2 {
		t.Error("Expected transient instances to differ")
	}
	// 但依赖的单例相同
	if b.A != b2.A {
		t.Error("Expected singleton dependency to be shared")
	}

	iface, err := di.Resolve[InterfaceC](c)
	if err != nil {
		t.Fatalf("Resolve interface failed: %v", err)
	}
	if iface.Do() != "C" {
		t.Error("Expected interface implementation ServiceC")
	}
}

func TestProvideConstructor(t *testing.T) {
	c := di.NewContainer()

	if _, err := di.Provide(c, NewAutoServiceA); err != nil {
		t.Fatalf("Provide constructor failed: %v", err)
	}
	if _, err := di.Provide(c, NewAutoServiceB); err != nil {
		t.Fatalf("Provide constructor failed: %v", err)
	}

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	b, err := di.Resolve[*AutoServiceB](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if b.A == nil || b.A.Val != "auto-A" {
		t.Errorf("Expected constructor-injected dependency, got %+v", b.A)
	}
}

func TestProvideValueWithTagDetection(t *testing.T) {
	type Holder struct {
		A    *AutoServiceA `di:""`
		Data string
	}

	c := di.NewContainer()
	if _, err := di.Provide(c, NewAutoServiceA); err != nil {
		t.Fatal(err)
	}

	holder := &Holder{Data: "keep"}
	if _, err := di.Provide(c, holder); err != nil {
		t.Fatal(err)
	}

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got, err := di.Resolve[*Holder](c)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != holder {
		t.Error("Expected the provided instance itself")
	}
	if got.A == nil {
		t.Error("Expected tagged field to be injected on provided value")
	}
	if got.Data != "keep" {
		t.Error("Expected untouched field to keep its value")
	}
}

func TestInvoke(t *testing.T) {
	c := di.NewContainer()
	di.Register[*ServiceA](c, di.WithValue(&ServiceA{Val: 7}))
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	called := false
	err := di.Invoke(c, func(a *ServiceA) error {
		called = true
		if a.Val != 7 {
			t.Errorf("Expected injected argument, got %+v", a)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !called {
		t.Error("Expected function to be invoked")
	}
}

func TestMissingDependency(t *testing.T) {
	c := di.NewContainer()
	di.Register[*ServiceB](c, di.WithTransient())
	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	_, err := di.Resolve[*ServiceB](c)
	if err == nil {
		t.Fatal("Expected resolve to fail for missing required dependency")
	}
	var missing *di.MissingDependencyError
	if !errors.As(err, &missing) {
		t.Errorf("Expected MissingDependencyError, got %v", err)
	}
	if missing.Key.Type != reflect.TypeOf((*ServiceA)(nil)) {
		t.Errorf("Unexpected missing key: %v", missing.Key)
	}
}

func TestTokenResolution(t *testing.T) {
	dsnToken := di.NewToken[string]("db-dsn")

	c := di.NewContainer()
	di.Register[string](c, di.WithName(dsnToken.Name()), di.WithValue("file::memory:"))
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	dsn, err := di.ResolveToken(c, dsnToken)
	if err != nil {
		t.Fatalf("ResolveToken failed: %v", err)
	}
	if dsn != "file::memory:" {
		t.Errorf("Expected token value, got %q", dsn)
	}
}
