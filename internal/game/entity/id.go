package entity

import (
	"fmt"
	"strconv"
)

// ID 是按实体种类区分的数值句柄。T 只做类型标记：
// ID[Class] 与 ID[Team] 即使数值相同也无法比较或互相赋值。
type ID[T any] struct {
	raw uint64
}

// FromRaw 从线上数值还原 id；是否属于某个 arena 由调用方保证。
func FromRaw[T any](raw uint64) ID[T] {
	return ID[T]{raw: raw}
}

func (id ID[T]) Raw() uint64 {
	return id.raw
}

func (id ID[T]) String() string {
	return strconv.FormatUint(id.raw, 10)
}

func (id ID[T]) MarshalJSON() ([]byte, error) {
	return strconv.AppendUint(nil, id.raw, 10), nil
}

// UnmarshalJSON 同时接受数字与字符串形式；作为 map key 解码时拿到的是带引号的 "3"。
func (id *ID[T]) UnmarshalJSON(data []byte) error {
	if n := len(data); n >= 2 && data[0] == '"' && data[n-1] == '"' {
		return id.UnmarshalText(data[1 : n-1])
	}
	return id.UnmarshalText(data)
}

// MarshalText 让 id 可以作为 JSON map 的 key。
func (id ID[T]) MarshalText() ([]byte, error) {
	return strconv.AppendUint(nil, id.raw, 10), nil
}

func (id *ID[T]) UnmarshalText(data []byte) error {
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("entity id: %w", err)
	}
	id.raw = v
	return nil
}
