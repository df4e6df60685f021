// Package view はページ識別子からテンプレートへの対応表と、その描画を提供します。
package view

// PageID はページ・フラグメントの識別子です。
type PageID string

const (
	PageHome      PageID = "home"
	PageAbout     PageID = "about"
	PageSearch    PageID = "search"
	PageChatTest  PageID = "chat_test"
	PageFunnyList PageID = "funny_list"
	PageLogin     PageID = "login"
	PageChat      PageID = "chat"

	FragmentLoginSuccess PageID = "login_success"
	FragmentLoginFailure PageID = "login_failure"
)

// Descriptor はページの実体ファイルと扱い方です。
// Static のページはテンプレートとして解釈せず、そのまま返します。
type Descriptor struct {
	File   string
	Static bool
}

// Pages は全ページの対応表です。ページの追加はここへの登録だけで済みます。
var Pages = map[PageID]Descriptor{
	PageHome:     {File: "index.html", Static: true},
	PageAbout:    {File: "about.html", Static: true},
	PageSearch:   {File: "search.html", Static: true},
	PageChatTest: {File: "chat_test.html", Static: true},

	PageFunnyList: {File: "lister.html"},
	PageLogin:     {File: "login.html"},
	PageChat:      {File: "chat.html"},

	FragmentLoginSuccess: {File: "login_success.html"},
	FragmentLoginFailure: {File: "login_failure.html"},
}
