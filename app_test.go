package app_test

import (
	"testing"

	app "github.com/gocrud/inject"
	"github.com/gocrud/inject/config"
	"github.com/gocrud/inject/core"
	"github.com/gocrud/inject/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Greeter 示例业务接口
type Greeter interface {
	Greet() string
}

type greeter struct {
	prefix string
}

func (g *greeter) Greet() string { return g.prefix + " world" }

func NewGreeter() *greeter {
	return &greeter{prefix: "hello"}
}

// ConfiguredService 演示字段注入与配置读取
type ConfiguredService struct {
	Greeter Greeter `di:""`
}

func TestApplicationBuilderServices(t *testing.T) {
	builder := app.NewApplicationBuilder()

	builder.ConfigureConfiguration(func(cb *config.ConfigurationBuilder) {
		cb.AddInMemory(map[string]any{
			"app": map[string]any{
				"name": "demo",
			},
		})
	})

	builder.ConfigureServices(func(s *core.ServiceCollection) {
		core.AddSingleton[Greeter](s, NewGreeter)
	})

	builder.Configure(func(ctx *core.BuildContext) {
		di.Register[*ConfiguredService](ctx.Container())
	})

	a := builder.Build()

	// 配置值可读
	assert.Equal(t, "demo", a.Configuration().Get("app:name"))

	// 接口绑定可解析
	g, err := di.Resolve[Greeter](a.Services())
	require.NoError(t, err)
	assert.Equal(t, "hello world", g.Greet())

	// 字段注入的服务与接口单例一致
	svc, err := di.Resolve[*ConfiguredService](a.Services())
	require.NoError(t, err)
	assert.Same(t, g, svc.Greeter)

	// GetService 语法糖
	var viaPtr Greeter
	a.GetService(&viaPtr)
	assert.Same(t, g, viaPtr)
}

func TestApplicationEnvironment(t *testing.T) {
	builder := app.NewApplicationBuilder()
	builder.UseEnvironment("production")

	a := builder.Build()

	assert.Equal(t, "production", a.Environment().Name())
	assert.True(t, a.Environment().IsProduction())
	assert.False(t, a.Environment().IsDevelopment())
}
