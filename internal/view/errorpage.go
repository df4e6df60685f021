package view

import (
	"bytes"
	"text/template"

	"github.com/gin-gonic/gin"
)

var errorTemplate = template.Must(template.New("error").Parse(
	"error has occurred with status code {{ .StatusCode }} and message {{ .Message }}\n",
))

type errorPage struct {
	StatusCode int
	Message    string
}

// WriteError は固定書式のエラーページを返します。
// 書式の描画にも失敗した場合は固定文言にフォールバックします。
func WriteError(c *gin.Context, status int, message string) {
	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, errorPage{StatusCode: status, Message: message}); err != nil {
		c.Data(status, "text/plain; charset=utf-8", []byte("Something went wrong"))
		return
	}
	c.Data(status, htmlContentType, buf.Bytes())
}
