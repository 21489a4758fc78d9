package app

import "github.com/atotto/clipboard"

// Clipboard 用来分享会话码与重连码。
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

// SystemClipboard 走系统剪贴板（xclip/xsel/pbcopy 等），不可用时读写返回错误。
func SystemClipboard() Clipboard {
	return systemClipboard{}
}

func (systemClipboard) ReadAll() (string, error) {
	return clipboard.ReadAll()
}

func (systemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}
