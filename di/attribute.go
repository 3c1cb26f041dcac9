package di

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// Attribute 成员上的注入标记
// 字段通过 `di` 标签携带标记，方法通过类型声明的 Annotation 携带标记。
//
// 标签语法: `di:"name,option1,option2,..."`
//   - 第一段为服务名称（命名注入），可为空
//   - optional / ? 表示可选依赖
//   - default=<字面量> 指定可选依赖的回退值
//   - 其他裸单词作为自定义标记名，由注册的 AttributeFactory 认领
//
// 示例：
//
//	type Service struct {
//		DB    *gorm.DB      `di:""`                      // 必选
//		Cache *CacheClient  `di:"primary"`               // 命名注入
//		Port  int           `di:",optional,default=8080"` // 可选 + 默认值
//	}
type Attribute struct {
	// Name 解析名称，空字符串表示默认（未命名）服务
	Name string

	// Optional 是否为可选依赖
	Optional bool

	// Markers 自定义标记名列表，按标签中出现顺序
	Markers []string

	// Default 可选依赖的默认值字面量
	Default string

	// HasDefault 标签中是否出现了 default 选项
	HasDefault bool
}

// hasMarker 判断属性是否携带指定标记
func (a *Attribute) hasMarker(marker string) bool {
	for _, m := range a.Markers {
		if m == marker {
			return true
		}
	}
	return false
}

// parseAttribute 解析 `di` 标签为 Attribute
// 解析失败不报错：未知的 key=value 选项被忽略。
func parseAttribute(tag string) *Attribute {
	parts := strings.Split(tag, ",")
	attr := &Attribute{Name: strings.TrimSpace(parts[0])}

	// 兼容 `di:"?"` 与 `di:"optional"` 的写法，此时名称视为空
	if attr.Name == "?" || attr.Name == "optional" {
		attr.Name = ""
		attr.Optional = true
	}

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		switch {
		case part == "optional" || part == "?":
			attr.Optional = true
		case strings.HasPrefix(part, "default="):
			attr.Default = strings.TrimPrefix(part, "default=")
			attr.HasDefault = true
		case part != "":
			attr.Markers = append(attr.Markers, part)
		}
	}
	return attr
}

// Annotation 声明式成员标注，用于没有结构体标签的成员（方法）
// Tag 复用 `di` 标签的语法。
type Annotation struct {
	// Method 方法名
	Method string

	// Tag 标记内容，语法同 `di` 标签
	Tag string
}

// Annotated 类型可以实现此接口来声明方法注入点
// 选择器会在计划构建时读取（通过零值实例）。
type Annotated interface {
	InjectAnnotations() []Annotation
}

// AttributeFactory 属性解析器工厂
// 一条注册规则：{标记识别、名称提取、解析步骤构建}。
// 工厂按注册顺序逐个尝试，每个成员最多命中一个（先到先得）。
type AttributeFactory struct {
	// Marker 工厂认领的标记名，内建的必选/可选工厂为空
	Marker string

	// Match 判断属性是否归本工厂处理
	Match func(attr *Attribute) bool

	// NameOf 从属性中提取解析名称
	NameOf func(attr *Attribute) string

	// Build 构建成员值的解析操作
	// defaultValue 为解析失败时的回退值（仅可选语义的工厂使用）。
	Build func(attr *Attribute, member *MemberDescriptor, defaultValue any) ValueResolver
}

// FactoryRegistry 属性解析器工厂表
// 进程级共享、只追加。追加通过写时复制完成，
// 因此并发读取（解析进行中）无需加锁即可安全读到某个一致快照。
type FactoryRegistry struct {
	mu        sync.Mutex
	factories atomic.Pointer[[]AttributeFactory]
}

// NewFactoryRegistry 创建工厂表，内建必选与可选依赖工厂
func NewFactoryRegistry() *FactoryRegistry {
	r := &FactoryRegistry{}
	builtin := []AttributeFactory{requiredFactory(), optionalFactory()}
	r.factories.Store(&builtin)
	return r
}

// Register 追加工厂，保持追加顺序
// 顺序即优先级。已注册的工厂不可移除、不可修改。
func (r *FactoryRegistry) Register(factories ...AttributeFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.factories.Load()
	next := make([]AttributeFactory, 0, len(old)+len(factories))
	next = append(next, old...)
	next = append(next, factories...)
	r.factories.Store(&next)
}

// snapshot 返回当前工厂表的不可变快照
func (r *FactoryRegistry) snapshot() []AttributeFactory {
	return *r.factories.Load()
}

// match 返回第一个认领该属性的工厂
func (r *FactoryRegistry) match(attr *Attribute) (AttributeFactory, bool) {
	for _, f := range r.snapshot() {
		if f.Match(attr) {
			return f, true
		}
	}
	return AttributeFactory{}, false
}

// requiredFactory 内建必选依赖工厂
// 解析失败原样向上传播，没有回退。
func requiredFactory() AttributeFactory {
	return AttributeFactory{
		Match: func(attr *Attribute) bool {
			return !attr.Optional && len(attr.Markers) == 0
		},
		NameOf: func(attr *Attribute) string { return attr.Name },
		Build: func(attr *Attribute, member *MemberDescriptor, _ any) ValueResolver {
			typ, name := member.ValueType, attr.Name
			return func(ctx *BuildContext) (any, error) {
				return ctx.Resolve(typ, name)
			}
		},
	}
}

// optionalFactory 内建可选依赖工厂
// 解析失败时返回默认值，但循环依赖必须照常传播。
func optionalFactory() AttributeFactory {
	return AttributeFactory{
		Marker: "optional",
		Match: func(attr *Attribute) bool {
			return attr.Optional
		},
		NameOf: func(attr *Attribute) string { return attr.Name },
		Build: func(attr *Attribute, member *MemberDescriptor, defaultValue any) ValueResolver {
			typ, name := member.ValueType, attr.Name
			return func(ctx *BuildContext) (any, error) {
				val, err := ctx.Resolve(typ, name)
				if err != nil {
					if IsCircular(err) {
						return nil, err
					}
					return defaultValue, nil
				}
				return val, nil
			}
		},
	}
}

// defaultValueFor 计算成员的默认值
// 有 default= 字面量时按成员类型转换，否则为类型零值。
func defaultValueFor(attr *Attribute, typ reflect.Type) (any, error) {
	if attr == nil || !attr.HasDefault {
		return reflect.Zero(typ).Interface(), nil
	}
	return coerceLiteral(attr.Default, typ)
}

// coerceLiteral 将字面量字符串转换为目标类型的值
func coerceLiteral(literal string, typ reflect.Type) (any, error) {
	val := reflect.New(typ).Elem()
	switch typ.Kind() {
	case reflect.String:
		val.SetString(literal)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("di: 默认值 %q 无法转换为 %v: %w", literal, typ, err)
		}
		val.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(literal, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("di: 默认值 %q 无法转换为 %v: %w", literal, typ, err)
		}
		val.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return nil, fmt.Errorf("di: 默认值 %q 无法转换为 %v: %w", literal, typ, err)
		}
		val.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(literal)
		if err != nil {
			return nil, fmt.Errorf("di: 默认值 %q 无法转换为 %v: %w", literal, typ, err)
		}
		val.SetBool(b)
	default:
		return nil, fmt.Errorf("di: 类型 %v 不支持 default= 字面量", typ)
	}
	return val.Interface(), nil
}
