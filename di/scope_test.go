package di_test

import (
	"sync"
	"testing"

	"github.com/gocrud/inject/di"
)

type requestCtx struct {
	ID int
}

var requestCounter int
var requestMu sync.Mutex

func newRequestCtx() *requestCtx {
	requestMu.Lock()
	defer requestMu.Unlock()
	requestCounter++
	return &requestCtx{ID: requestCounter}
}

type requestHandler struct {
	Ctx *requestCtx `di:""`
}

// 作用域服务在同一作用域内共享，不同作用域互不相同
func TestScopedLifetime(t *testing.T) {
	requestCounter = 0
	c := di.NewContainer()
	di.Register[*requestCtx](c, di.WithScoped(), di.WithFactory(newRequestCtx))
	di.Register[*requestHandler](c, di.WithTransient())

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	s1 := c.CreateScope()
	defer s1.Dispose()
	s2 := c.CreateScope()
	defer s2.Dispose()

	a1, err := di.Resolve[*requestCtx](s1)
	if err != nil {
		t.Fatal(err)
	}
	a2, err := di.Resolve[*requestCtx](s1)
	if err != nil {
		t.Fatal(err)
	}
	b1, err := di.Resolve[*requestCtx](s2)
	if err != nil {
		t.Fatal(err)
	}

	if a1 != a2 {
		t.Error("Same scope must return the same scoped instance")
	}
	if a1 == b1 {
		t.Error("Different scopes must return different scoped instances")
	}
}

// 瞬态服务的作用域依赖来自解析它的那个作用域
func TestTransientSeesScopedDependency(t *testing.T) {
	requestCounter = 0
	c := di.NewContainer()
	di.Register[*requestCtx](c, di.WithScoped(), di.WithFactory(newRequestCtx))
	di.Register[*requestHandler](c, di.WithTransient())

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	s := c.CreateScope()
	defer s.Dispose()

	h1, err := di.Resolve[*requestHandler](s)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := di.Resolve[*requestHandler](s)
	if err != nil {
		t.Fatal(err)
	}

	if h1 == h2 {
		t.Error("Transient handlers must be distinct")
	}
	if h1.Ctx != h2.Ctx {
		t.Error("Both handlers must share the scope's request context")
	}
}

// 从根容器直接解析作用域服务是错误
func TestScopedFromRootFails(t *testing.T) {
	c := di.NewContainer()
	di.Register[*requestCtx](c, di.WithScoped(), di.WithFactory(newRequestCtx))

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	if _, err := di.Resolve[*requestCtx](c); err == nil {
		t.Fatal("Expected resolving a scoped service from the root container to fail")
	}
}

// 单例不捕获作用域实例：经由作用域解析的单例仍来自根容器
func TestSingletonNotCapturedByScope(t *testing.T) {
	c := di.NewContainer()
	di.Register[*ServiceA](c, di.WithValue(&ServiceA{Val: 1}))

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	fromRoot, err := di.Resolve[*ServiceA](c)
	if err != nil {
		t.Fatal(err)
	}

	s := c.CreateScope()
	defer s.Dispose()
	fromScope, err := di.Resolve[*ServiceA](s)
	if err != nil {
		t.Fatal(err)
	}

	if fromRoot != fromScope {
		t.Error("Singletons must be shared between root and scopes")
	}
}

// 并发解析同一作用域服务只创建一个实例
func TestScopedConcurrent(t *testing.T) {
	requestCounter = 0
	c := di.NewContainer()
	di.Register[*requestCtx](c, di.WithScoped(), di.WithFactory(newRequestCtx))

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	s := c.CreateScope()
	defer s.Dispose()

	const goroutines = 16
	results := make([]*requestCtx, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			got, err := di.Resolve[*requestCtx](s)
			if err != nil {
				t.Error(err)
				return
			}
			results[idx] = got
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d observed a different scoped instance", i)
		}
	}
}
