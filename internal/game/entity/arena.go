package entity

import "encoding/json"

// Arena 独占持有值，id 即下标：从 0 开始严格递增。
// 没有任意删除，只能用 Truncate 撤回尚未对外暴露的尾部分配。
type Arena[T any] struct {
	items []T
}

func NewArena[T any](capacity int) *Arena[T] {
	return &Arena[T]{items: make([]T, 0, capacity)}
}

// Allocate 插入并返回新 id，不会失败。
func (a *Arena[T]) Allocate(v T) ID[T] {
	a.items = append(a.items, v)
	return ID[T]{raw: uint64(len(a.items) - 1)}
}

// Get 未知 id 返回 false，不 panic。
func (a *Arena[T]) Get(id ID[T]) (T, bool) {
	if a == nil || id.raw >= uint64(len(a.items)) {
		var zero T
		return zero, false
	}
	return a.items[id.raw], true
}

func (a *Arena[T]) GetMut(id ID[T]) (*T, bool) {
	if a == nil || id.raw >= uint64(len(a.items)) {
		return nil, false
	}
	return &a.items[id.raw], true
}

func (a *Arena[T]) Contains(id ID[T]) bool {
	return a != nil && id.raw < uint64(len(a.items))
}

func (a *Arena[T]) Len() int {
	if a == nil {
		return 0
	}
	return len(a.items)
}

// Truncate 只保留前 n 个元素；n 不小于当前长度时不做任何事。
func (a *Arena[T]) Truncate(n int) {
	if a == nil || n < 0 || n >= len(a.items) {
		return
	}
	clear(a.items[n:])
	a.items = a.items[:n]
}

// IDs 按升序返回全部 id。
func (a *Arena[T]) IDs() []ID[T] {
	out := make([]ID[T], a.Len())
	for i := range out {
		out[i] = ID[T]{raw: uint64(i)}
	}
	return out
}

// At 按序号取 id，供客户端游标使用；越界返回 false。
func (a *Arena[T]) At(idx int) (ID[T], bool) {
	if idx < 0 || idx >= a.Len() {
		return ID[T]{}, false
	}
	return ID[T]{raw: uint64(idx)}, true
}

func (a *Arena[T]) Each(fn func(id ID[T], v *T)) {
	if a == nil {
		return
	}
	for i := range a.items {
		fn(ID[T]{raw: uint64(i)}, &a.items[i])
	}
}

// Clone 浅拷贝一份：值本身按 T 的语义复制。
func (a *Arena[T]) Clone() *Arena[T] {
	if a == nil {
		return NewArena[T](0)
	}
	items := make([]T, len(a.items))
	copy(items, a.items)
	return &Arena[T]{items: items}
}

// MarshalJSON 按 id 顺序输出数组，下标即 id。
func (a Arena[T]) MarshalJSON() ([]byte, error) {
	if a.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.items)
}

func (a *Arena[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	a.items = items
	return nil
}
