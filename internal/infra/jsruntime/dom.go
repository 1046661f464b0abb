package jsruntime

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
)

// domArena holds every Selection a script has touched during one Run,
// indexed by a small integer handle so JS-side Node objects can reference
// Go-side goquery state without exposing pointers to the script.
type domArena struct {
	docs []*goquery.Document
}

// node is the script-visible DOM façade: select, children, attr access,
// and inner/outer HTML get+set, backed by one goquery.Selection.
type node struct {
	arena *domArena
	sel   *goquery.Selection
}

// installDOM installs a DOM(html) constructor the script calls to parse
// a fragment and obtain a root Node.
func installDOM(vm *goja.Runtime) {
	arena := &domArena{}
	vm.Set("DOM", func(call goja.ConstructorCall) *goja.Object {
		html := ""
		if len(call.Arguments) > 0 {
			html = call.Arguments[0].String()
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + html + "</body></html>"))
		if err != nil {
			doc, _ = goquery.NewDocumentFromReader(strings.NewReader("<html><body></body></html>"))
		}
		arena.docs = append(arena.docs, doc)
		n := &node{arena: arena, sel: doc.Find("body").Children().First()}
		if n.sel.Length() == 0 {
			n.sel = doc.Find("body")
		}
		return newNodeObject(vm, n)
	})
}

func newNodeObject(vm *goja.Runtime, n *node) *goja.Object {
	obj := vm.NewObject()
	obj.Set("select", func(selector string) *goja.Object {
		found := n.sel.Find(selector).First()
		return newNodeObject(vm, &node{arena: n.arena, sel: found})
	})
	obj.Set("select_all", func(selector string) []*goja.Object {
		var out []*goja.Object
		n.sel.Find(selector).Each(func(i int, s *goquery.Selection) {
			out = append(out, newNodeObject(vm, &node{arena: n.arena, sel: s}))
		})
		return out
	})
	obj.Set("children", func() []*goja.Object {
		var out []*goja.Object
		n.sel.Children().Each(func(i int, s *goquery.Selection) {
			out = append(out, newNodeObject(vm, &node{arena: n.arena, sel: s}))
		})
		return out
	})
	obj.Set("attr", func(name string) interface{} {
		v, ok := n.sel.Attr(name)
		if !ok {
			return nil
		}
		return v
	})
	obj.Set("set_attr", func(name, value string) {
		n.sel.SetAttr(name, value)
	})
	obj.Set("unset_attr", func(name string) {
		n.sel.RemoveAttr(name)
	})
	obj.Set("inner_html", func() string {
		html, _ := n.sel.Html()
		return html
	})
	obj.Set("set_inner_html", func(html string) {
		n.sel.SetHtml(html)
	})
	obj.Set("outer_html", func() string {
		html, _ := goquery.OuterHtml(n.sel)
		return html
	})
	obj.Set("set_outer_html", func(html string) {
		replacement, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + html + "</body></html>"))
		if err != nil {
			return
		}
		n.sel.ReplaceWithSelection(replacement.Find("body").Children())
	})
	obj.Set("text", func() string {
		return n.sel.Text()
	})
	return obj
}
