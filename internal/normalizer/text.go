package normalizer

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockElements = "address, blockquote, br, dd, div, dl, dt, h1, h2, h3, h4, h5, h6, hr, li, ol, p, pre, table, td, th, tr, ul"

// plainText strips markup from descriptive fields. Values without a tag are
// returned untouched.
func plainText(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}

	// block boundaries separate words; inline tags do not
	doc.Find(blockElements).AfterHtml(" ")
	return strings.Join(strings.Fields(doc.Find("body").Text()), " ")
}
