package di_test

import (
	"testing"

	"github.com/gocrud/inject/di"
)

type Logger struct {
	Prefix string
}

type withSetter struct {
	logger *Logger
	level  string
}

func (s *withSetter) SetLogger(l *Logger) {
	s.logger = l
}

func (s *withSetter) Configure(l *Logger, level string) {
	s.logger = l
	s.level = level
}

// 显式方法绑定：按位置参数调用
func TestMethodInjection(t *testing.T) {
	c := di.NewContainer()
	di.Register[*Logger](c, di.WithValue(&Logger{Prefix: "app"}))
	di.Register[*withSetter](c, di.WithMethod("SetLogger", di.Auto))

	if err := c.Build(); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	got, err := di.Resolve[*withSetter](c)
	if err != nil {
		t.Fatal(err)
	}
	if got.logger == nil || got.logger.Prefix != "app" {
		t.Errorf("Expected logger injected via setter, got %+v", got.logger)
	}
}

// 方法绑定混用容器解析与字面量
func TestMethodInjectionMixedArgs(t *testing.T) {
	c := di.NewContainer()
	di.Register[*Logger](c, di.WithValue(&Logger{Prefix: "svc"}))
	di.Register[*withSetter](c, di.WithMethod("Configure", di.Auto, "debug"))

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	got, err := di.Resolve[*withSetter](c)
	if err != nil {
		t.Fatal(err)
	}
	if got.logger == nil || got.level != "debug" {
		t.Errorf("Expected both args applied, got logger=%v level=%q", got.logger, got.level)
	}
}

// 参数个数不匹配的方法绑定在 Build 时报错
func TestMethodInjectionArityMismatch(t *testing.T) {
	c := di.NewContainer()
	di.Register[*Logger](c, di.WithValue(&Logger{}))
	di.Register[*withSetter](c, di.WithMethod("Configure", di.Auto))

	if err := c.Build(); err == nil {
		t.Fatal("Expected Build to fail for arity mismatch")
	}
}

type annotatedService struct {
	logger *Logger
}

func (s *annotatedService) SetLogger(l *Logger) { s.logger = l }

func (s *annotatedService) InjectAnnotations() []di.Annotation {
	return []di.Annotation{{Method: "SetLogger"}}
}

// 类型通过 Annotated 接口声明注入方法
func TestAnnotatedInterface(t *testing.T) {
	c := di.NewContainer()
	di.Register[*Logger](c, di.WithValue(&Logger{Prefix: "ann"}))
	di.Register[*annotatedService](c)

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	got, err := di.Resolve[*annotatedService](c)
	if err != nil {
		t.Fatal(err)
	}
	if got.logger == nil || got.logger.Prefix != "ann" {
		t.Errorf("Expected annotation-declared setter to run, got %+v", got.logger)
	}
}

// Provide 传入实例时，Annotated 声明的注入方法也自动开启成员注入
func TestProvideAnnotatedValue(t *testing.T) {
	c := di.NewContainer()
	di.Register[*Logger](c, di.WithValue(&Logger{Prefix: "auto"}))

	if _, err := di.Provide(c, &annotatedService{}); err != nil {
		t.Fatal(err)
	}
	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	got, err := di.Resolve[*annotatedService](c)
	if err != nil {
		t.Fatal(err)
	}
	if got.logger == nil || got.logger.Prefix != "auto" {
		t.Errorf("Expected auto-enabled method injection for Annotated value, got %+v", got.logger)
	}
}

// 注册时通过 WithAnnotation 标注方法，tag 语义与字段标签一致
func TestWithAnnotationOption(t *testing.T) {
	c := di.NewContainer()
	di.Register[*Logger](c, di.WithValue(&Logger{Prefix: "opt"}), di.WithName("main"))
	di.Register[*withSetter](c, di.WithAnnotation("SetLogger", "main"))

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	got, err := di.Resolve[*withSetter](c)
	if err != nil {
		t.Fatal(err)
	}
	if got.logger == nil || got.logger.Prefix != "opt" {
		t.Errorf("Expected named logger injected, got %+v", got.logger)
	}
}

type dsnDatabase struct {
	DSN    string
	Logger *Logger
}

func newDSNDatabase(dsn string, l *Logger) *dsnDatabase {
	return &dsnDatabase{DSN: dsn, Logger: l}
}

// 构造参数绑定：字面量覆盖部分参数，其余仍按类型解析
func TestCtorArgsOverride(t *testing.T) {
	c := di.NewContainer()
	di.Register[*Logger](c, di.WithValue(&Logger{Prefix: "db"}))
	di.Register[*dsnDatabase](c,
		di.WithFactory(newDSNDatabase),
		di.WithCtorArgs("file::memory:", di.Auto))

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	got, err := di.Resolve[*dsnDatabase](c)
	if err != nil {
		t.Fatal(err)
	}
	if got.DSN != "file::memory:" {
		t.Errorf("Expected literal ctor arg, got %q", got.DSN)
	}
	if got.Logger == nil || got.Logger.Prefix != "db" {
		t.Errorf("Expected Auto ctor arg resolved from container, got %+v", got.Logger)
	}
}

// 构造参数个数不匹配在 Build 时报错
func TestCtorArgsArityMismatch(t *testing.T) {
	c := di.NewContainer()
	di.Register[*dsnDatabase](c,
		di.WithFactory(newDSNDatabase),
		di.WithCtorArgs("only-one"))

	if err := c.Build(); err == nil {
		t.Fatal("Expected Build to fail for ctor arity mismatch")
	}
}

// 字段来源为工厂函数：参数从容器解析，返回值写入字段
func TestFieldFactorySource(t *testing.T) {
	type wrapped struct {
		Msg string
	}
	c := di.NewContainer()
	di.Register[*Logger](c, di.WithValue(&Logger{Prefix: "fac"}))
	di.Register[*wrapped](c, di.WithField("Msg", func(l *Logger) string {
		return "from-" + l.Prefix
	}))

	if err := c.Build(); err != nil {
		t.Fatal(err)
	}

	got, err := di.Resolve[*wrapped](c)
	if err != nil {
		t.Fatal(err)
	}
	if got.Msg != "from-fac" {
		t.Errorf("Expected factory-sourced field, got %q", got.Msg)
	}
}
