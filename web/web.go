// Package web はサーバーに埋め込むテンプレートと静的ページを提供します。
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.html
var embedded embed.FS

// Templates は templates ディレクトリを根とする fs.FS を返します。
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
