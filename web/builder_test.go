package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/inject/di"
	"github.com/stretchr/testify/assert"
)

// ---------------- Mock Controllers ----------------

// SimpleController 普通控制器（无依赖）
type SimpleController struct{}

func (c *SimpleController) MountRoutes(router gin.IRouter) {
	router.GET("/simple", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "simple")
	})
}

// DepService 模拟依赖服务
type DepService struct {
	Value string
}

// CtorController 构造函数注入的控制器
type CtorController struct {
	svc *DepService
}

func NewCtorController(svc *DepService) *CtorController {
	return &CtorController{svc: svc}
}

func (c *CtorController) MountRoutes(router gin.IRouter) {
	router.GET("/ctor", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, c.svc.Value)
	})
}

// TagController 字段注入的控制器
type TagController struct {
	Svc *DepService `di:""`
}

func (c *TagController) MountRoutes(router gin.IRouter) {
	router.GET("/tag", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "tag:"+c.Svc.Value)
	})
}

// ---------------- Tests ----------------

func TestBuilderAddControllers(t *testing.T) {
	container := di.NewContainer()
	di.Register[*DepService](container,
		di.WithValue(&DepService{Value: "injected-value"}))

	builder := NewBuilder()

	// 构造函数注入
	builder.AddControllers(NewCtorController)
	// 实例指针 + di 标签
	builder.AddControllers(&TagController{})
	// 无依赖
	builder.AddControllers(&SimpleController{})

	// 控制器必须在容器 Build 之前注册为服务
	err := builder.RegisterServices(container)
	assert.NoError(t, err)

	host := builder.Build(container)

	err = container.Build()
	assert.NoError(t, err)

	// Start 中的路由挂载，这里手动触发
	err = host.mapControllers()
	assert.NoError(t, err)

	router := host.engine

	w1 := httptest.NewRecorder()
	req1, _ := http.NewRequest("GET", "/simple", nil)
	router.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "simple", w1.Body.String())

	w2 := httptest.NewRecorder()
	req2, _ := http.NewRequest("GET", "/ctor", nil)
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "injected-value", w2.Body.String())

	w3 := httptest.NewRecorder()
	req3, _ := http.NewRequest("GET", "/tag", nil)
	router.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusOK, w3.Code)
	assert.Equal(t, "tag:injected-value", w3.Body.String())
}

func TestBuilderDuplicateRegistration(t *testing.T) {
	container := di.NewContainer()

	// 故意添加两次相同的控制器
	builder := NewBuilder()
	builder.AddControllers(NewCtorController)
	builder.AddControllers(NewCtorController)

	err := builder.RegisterServices(container)
	assert.NoError(t, err)

	// 重复注册降级为警告，类型列表仍然可用
	host := builder.Build(container)
	assert.NotEmpty(t, host.controllerTypes)
}

func TestBuilderCustomRoutes(t *testing.T) {
	builder := NewBuilder()
	builder.Get("/ping", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	builder.Engine().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}
