// Package storage はページやマニフェストなどのファイル読み出しを抽象化します。
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// File は読み出したファイルの内容と種別です。
type File struct {
	Name        string
	Data        []byte
	ContentType string
}

// Local は fs.FS 上のファイルを読み出します。
type Local struct {
	fsys fs.FS
}

// NewLocal は fsys を参照する Local を作成します。
func NewLocal(fsys fs.FS) *Local {
	return &Local{fsys: fsys}
}

// NewLocalFile は単一ファイル path を読み出すための Local と、そのファイル名を返します。
func NewLocalFile(p string) (*Local, string) {
	dir, name := filepath.Split(p)
	if dir == "" {
		dir = "."
	}
	return &Local{fsys: os.DirFS(dir)}, name
}

// Exists はファイルが存在し、ディレクトリでないかを確認します。
func (l *Local) Exists(name string) error {
	info, err := fs.Stat(l.fsys, name)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s: is a directory", name)
	}
	return nil
}

// Read はファイルを読み出し、内容から Content-Type を判定します。
// 拡張子が .html / .htm のものは text/html として扱います。
func (l *Local) Read(name string) (*File, error) {
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("invalid path: %q", name)
	}
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:        path.Base(name),
		Data:        data,
		ContentType: detectContentType(name, data),
	}, nil
}

// IsNotExist はファイルが存在しないことを示すエラーかを返します。
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func detectContentType(name string, data []byte) string {
	if ext := path.Ext(name); ext == ".html" || ext == ".htm" {
		return "text/html; charset=utf-8"
	}
	return mimetype.Detect(data).String()
}
